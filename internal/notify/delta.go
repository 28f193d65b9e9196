/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package notify holds the snapshot-diff core of the notifier: a pure
// (current, prior) -> (delta, next) function with no I/O, so the comparison
// logic is testable without touching the tracker or the mail transport.
package notify

import (
    "crypto/sha256"
    "encoding/hex"
    "sort"

    "github.com/HamedShams/advisory-pulse/internal/domain"
)

const (
    ReasonNew     = "new"
    ReasonChanged = "changed"
)

// Delta is the outcome of diffing one fetch against the prior state.
type Delta struct {
    // ToNotify is sorted ascending by advisory id for deterministic email
    // content and test output.
    ToNotify []domain.Advisory
    // Reasons maps advisory id to ReasonNew or ReasonChanged.
    Reasons map[string]string
    // Next is the state to persist once the batch email has gone out.
    Next map[string]string
}

// Fingerprint summarizes the notify-relevant fields of an advisory. Labels
// are sorted first so source-side reordering never looks like a change.
func Fingerprint(a domain.Advisory) string {
    labels := append([]string(nil), a.Labels...)
    sort.Strings(labels)
    h := sha256.New()
    h.Write([]byte(a.Title))
    h.Write([]byte{0})
    h.Write([]byte(a.State))
    for _, l := range labels {
        h.Write([]byte{0})
        h.Write([]byte(l))
    }
    return hex.EncodeToString(h.Sum(nil))
}

// ComputeDelta decides which advisories need an email: any id absent from
// prior, or present with a different fingerprint. Ids in prior but missing
// from current are carried into Next untouched, so a transiently incomplete
// fetch can't resurface old advisories later.
func ComputeDelta(current []domain.Advisory, prior map[string]string) Delta {
    next := make(map[string]string, len(prior)+len(current))
    for id, fp := range prior { next[id] = fp }

    d := Delta{Reasons: map[string]string{}, Next: next}
    for _, a := range current {
        fp := Fingerprint(a)
        old, seen := prior[a.ID]
        switch {
        case !seen:
            d.Reasons[a.ID] = ReasonNew
            d.ToNotify = append(d.ToNotify, a)
        case old != fp:
            d.Reasons[a.ID] = ReasonChanged
            d.ToNotify = append(d.ToNotify, a)
        }
        next[a.ID] = fp
    }
    sort.Slice(d.ToNotify, func(i, j int) bool { return d.ToNotify[i].ID < d.ToNotify[j].ID })
    return d
}
