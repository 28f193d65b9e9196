/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package notify

import (
    "fmt"
    "strings"
    "time"

    "github.com/HamedShams/advisory-pulse/internal/domain"
)

// RenderDigest builds the single batch email for a run's delta. One email
// per run, not per advisory, to bound mail volume.
func RenderDigest(repo string, advisories []domain.Advisory, reasons map[string]string, oncall []string) (subject, body string) {
    subject = fmt.Sprintf("Security advisories for %s: %d new/changed", repo, len(advisories))

    b := &strings.Builder{}
    fmt.Fprintf(b, "%d security advisories for %s need attention.\n\n", len(advisories), repo)
    fmt.Fprintf(b, "Please take action within two days. The security group members\n")
    if len(oncall) > 0 {
        fmt.Fprintf(b, "currently on the rotation are: %s.\n\n", strings.Join(oncall, ", "))
    } else {
        fmt.Fprintf(b, "currently on the rotation are: (none scheduled).\n\n")
    }
    for _, a := range advisories {
        reason := reasons[a.ID]
        if reason == "" { reason = ReasonNew }
        fmt.Fprintf(b, "- %s (%s): %s\n", a.ID, reason, a.Title)
        fmt.Fprintf(b, "  %s\n", a.URL)
    }
    return subject, b.String()
}

// RenderRotationNag builds the "schedule running short" email. lastStart is
// the start of the final scheduled shift; zero means nothing is scheduled
// at all.
func RenderRotationNag(repo string, lastStart time.Time) (subject, body string) {
    subject = fmt.Sprintf("Rotation schedule running short for %s", repo)

    issue := "no rotation is currently scheduled"
    if !lastStart.IsZero() {
        issue = fmt.Sprintf("the last rotation starts at %s", lastStart.UTC().Format("2006-01-02 15:04:05 MST"))
    }
    b := &strings.Builder{}
    fmt.Fprintf(b, "The rotation schedule is running short; %s.\n\n", issue)
    fmt.Fprintf(b, "Please extend it by running `advisory-pulse extend` in the\n")
    fmt.Fprintf(b, "%s repo and committing the results.\n\n", repo)
    fmt.Fprintf(b, "This nag email will be sent daily until the rotation is extended.\n\n")
    fmt.Fprintf(b, "Thank you!\n")
    return subject, b.String()
}
