/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package github

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/HamedShams/advisory-pulse/internal/config"
    "github.com/HamedShams/advisory-pulse/internal/domain"
    "github.com/rs/zerolog"
)

// Client talks to the repository-security-advisories REST API:
// https://docs.github.com/en/rest/security-advisories/repository-advisories
// Fetch failures are surfaced to the caller as a single error and never
// retried here; the external scheduler retries the whole run.
type Client struct {
    baseURL string
    token   string
    repo    string
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL: cfg.GitHubAPIBase,
        token:   cfg.GitHubToken,
        repo:    cfg.GitHubRepo,
        http:    &http.Client{ Timeout: cfg.HTTPTimeout },
        log:     log,
    }
}

// WithBaseURL returns a copy pointed at a different API root (tests).
func (c *Client) WithBaseURL(base string) *Client {
    cp := *c
    cp.baseURL = strings.TrimRight(base, "/")
    return &cp
}

type advisoryJSON struct {
    GhsaID    string `json:"ghsa_id"`
    Summary   string `json:"summary"`
    State     string `json:"state"`
    HTMLURL   string `json:"html_url"`
    CweIDs    []string `json:"cwe_ids"`
    UpdatedAt *time.Time `json:"updated_at"`
    Collaborating []struct {
        Login string `json:"login"`
    } `json:"collaborating_users"`
}

// ListSecurityAdvisories fetches the repo's advisories and keeps only the
// unpublished ones (draft or triage state).
func (c *Client) ListSecurityAdvisories(ctx context.Context) ([]domain.Advisory, error) {
    if c.repo == "" { return nil, errors.New("github: empty repo") }
    u := c.apiURL("/repos/"+c.repo+"/security-advisories", url.Values{"per_page": {"100"}})
    body, err := c.doJSON(ctx, http.MethodGet, u, nil)
    if err != nil { return nil, err }

    var raw []advisoryJSON
    if err := json.Unmarshal(body, &raw); err != nil {
        return nil, fmt.Errorf("github: decode advisories: %w", err)
    }
    out := make([]domain.Advisory, 0, len(raw))
    for _, a := range raw {
        if a.State != "draft" && a.State != "triage" { continue }
        collabs := make([]string, 0, len(a.Collaborating))
        for _, cu := range a.Collaborating { collabs = append(collabs, cu.Login) }
        htmlURL := a.HTMLURL
        if htmlURL == "" { htmlURL = "https://github.com/" + c.repo + "/security/advisories/" + a.GhsaID }
        out = append(out, domain.Advisory{
            ID:            a.GhsaID,
            Title:         a.Summary,
            URL:           htmlURL,
            State:         a.State,
            Labels:        a.CweIDs,
            UpdatedAt:     a.UpdatedAt,
            Collaborators: collabs,
        })
    }
    c.log.Debug().Int("count", len(out)).Msg("github: unpublished advisories fetched")
    return out, nil
}

// AddCollaborators patches an advisory with additional collaborating users.
func (c *Client) AddCollaborators(ctx context.Context, ghsaID string, logins []string) error {
    if ghsaID == "" { return errors.New("github: empty advisory id") }
    u := c.apiURL("/repos/"+c.repo+"/security-advisories/"+url.PathEscape(ghsaID), nil)
    _, err := c.doJSON(ctx, http.MethodPatch, u, map[string]any{"collaborating_users": logins})
    return err
}

func (c *Client) apiURL(path string, q url.Values) string {
    u := strings.TrimRight(c.baseURL, "/") + path
    if len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

func (c *Client) doJSON(ctx context.Context, method, u string, body any) ([]byte, error) {
    if c.baseURL == "" { return nil, errors.New("github: empty baseURL") }
    var r io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil { return nil, err }
        r = bytes.NewReader(b)
    }
    req, err := http.NewRequestWithContext(ctx, method, u, r)
    if err != nil { return nil, err }
    req.Header.Set("Accept", "application/vnd.github+json")
    req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
    if c.token != "" { req.Header.Set("Authorization", "Bearer "+c.token) }
    if body != nil { req.Header.Set("Content-Type", "application/json") }

    resp, err := c.http.Do(req)
    if err != nil { return nil, fmt.Errorf("github: %s %s: %w", method, u, err) }
    defer resp.Body.Close()
    b, _ := io.ReadAll(resp.Body)
    if resp.StatusCode >= 300 {
        return nil, fmt.Errorf("github api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
    }
    return b, nil
}
