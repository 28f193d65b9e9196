/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"
)

type Config struct {
    AppEnv   string
    TZ       string
    HTTPAddr string

    StateFile string

    GitHubRepo    string // "owner/repo"
    GitHubToken   string
    GitHubAPIBase string

    SMTPHost        string
    SMTPPort        int
    SMTPUsername    string
    SMTPPassword    string
    EmailRecipients []string

    RotationHorizon time.Duration
    RotationPeriod  time.Duration
    NagWindow       time.Duration
    NagInterval     time.Duration

    RunCron     string
    HTTPTimeout time.Duration
    MinRuntime  time.Duration
}

func getenv(key, def string) string {
    v := os.Getenv(key)
    if v == "" { return def }
    return v
}

func atoi(key string, def int) int {
    v := os.Getenv(key)
    if v == "" { return def }
    i, err := strconv.Atoi(v)
    if err != nil { return def }
    return i
}

func dur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" { return def }
    d, err := time.ParseDuration(v)
    if err != nil { return def }
    return d
}

func parseStrings(csv string) []string {
    if csv == "" { return nil }
    parts := strings.Split(csv, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}

func Load() Config {
    return Config{
        AppEnv:   getenv("APP_ENV", "prod"),
        TZ:       getenv("TZ", "UTC"),
        HTTPAddr: getenv("HTTP_ADDR", ":8080"),

        StateFile: getenv("STATE_FILE", "advisory-bot-state.yaml"),

        GitHubRepo:    getenv("GITHUB_REPOSITORY", ""),
        GitHubToken:   getenv("GITHUB_TOKEN", ""),
        GitHubAPIBase: getenv("GITHUB_API_BASE", "https://api.github.com"),

        SMTPHost:        getenv("SMTP_HOST", "smtp.gmail.com"),
        SMTPPort:        atoi("SMTP_PORT", 587),
        SMTPUsername:    getenv("SMTP_USERNAME", ""),
        SMTPPassword:    getenv("SMTP_PASSWORD", ""),
        EmailRecipients: parseStrings(getenv("EMAIL_RECIPIENTS", "")),

        // Two-week shifts, kept scheduled six weeks out.
        RotationHorizon: dur("ROTATION_HORIZON", 6*7*24*time.Hour),
        RotationPeriod:  dur("ROTATION_PERIOD", 2*7*24*time.Hour),
        NagWindow:       dur("ROTATION_NAG_WINDOW", 14*24*time.Hour),
        NagInterval:     dur("ROTATION_NAG_INTERVAL", 24*time.Hour),

        RunCron:     getenv("RUN_CRON", "0 * * * *"),
        HTTPTimeout: dur("HTTP_TIMEOUT", 30*time.Second),
        MinRuntime:  dur("MIN_RUNTIME", 0),
    }
}

// ValidateRun checks the settings the notifier pipeline cannot run without.
func (c Config) ValidateRun() error {
    if c.GitHubRepo == "" { return fmt.Errorf("config: GITHUB_REPOSITORY must be set") }
    if c.GitHubToken == "" { return fmt.Errorf("config: GITHUB_TOKEN must be set") }
    if c.SMTPUsername == "" || c.SMTPPassword == "" { return fmt.Errorf("config: SMTP_USERNAME and SMTP_PASSWORD must be set") }
    if len(c.EmailRecipients) == 0 { return fmt.Errorf("config: EMAIL_RECIPIENTS must be set") }
    return nil
}

// ValidateAssign checks the settings the collaborator-assign pipeline needs.
func (c Config) ValidateAssign() error {
    if c.GitHubRepo == "" { return fmt.Errorf("config: GITHUB_REPOSITORY must be set") }
    if c.GitHubToken == "" { return fmt.Errorf("config: GITHUB_TOKEN must be set") }
    return nil
}
