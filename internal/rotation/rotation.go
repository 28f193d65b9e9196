/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package rotation extends the on-call schedule. Extend is pure and
// deterministic: given identical inputs it appends identical assignments,
// which is what makes re-runs before the next shift boundary safe.
package rotation

import (
    "errors"
    "time"

    "github.com/HamedShams/advisory-pulse/internal/domain"
)

var (
    ErrEmptyPool = errors.New("rotation: empty member pool")
    ErrBadPeriod = errors.New("rotation: period must be positive")
)

// Extend appends assignments round-robin until the schedule covers
// now+horizon. Existing assignments are never rewritten or removed. The
// next person is the one after the newest assignment's person in pool
// order, wrapping around; if that person has left the pool, selection
// restarts at the front (pool resize mid-schedule is otherwise undefined
// and needs an explicit operator migration).
func Extend(s domain.Schedule, now time.Time, horizon, period time.Duration) (domain.Schedule, error) {
    if period <= 0 { return s, ErrBadPeriod }
    if len(s.Pool) == 0 { return s, ErrEmptyPool }

    out := s
    out.Assignments = append([]domain.Assignment(nil), s.Assignments...)

    lastEnd := now
    next := 0
    seq := 0
    if n := len(out.Assignments); n > 0 {
        tail := out.Assignments[n-1]
        lastEnd = tail.End
        next = indexOf(s.Pool, tail.Person) + 1
        seq = tail.Seq + 1
    }

    target := now.Add(horizon)
    for lastEnd.Before(target) {
        p := s.Pool[next%len(s.Pool)]
        out.Assignments = append(out.Assignments, domain.Assignment{
            Person: p,
            Start:  lastEnd,
            End:    lastEnd.Add(period),
            Seq:    seq,
        })
        lastEnd = lastEnd.Add(period)
        next++
        seq++
    }
    return out, nil
}

// Current returns the assignment whose shift covers now.
func Current(s domain.Schedule, now time.Time) (domain.Assignment, bool) {
    for i := len(s.Assignments) - 1; i >= 0; i-- {
        a := s.Assignments[i]
        if !a.Start.After(now) && a.End.After(now) { return a, true }
    }
    return domain.Assignment{}, false
}

// TailStart returns the start of the final scheduled shift, or zero when
// nothing is scheduled.
func TailStart(s domain.Schedule) time.Time {
    if n := len(s.Assignments); n > 0 { return s.Assignments[n-1].Start }
    return time.Time{}
}

func indexOf(pool []string, person string) int {
    for i, p := range pool {
        if p == person { return i }
    }
    return -1
}
