/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/HamedShams/advisory-pulse/internal/config"
    "github.com/HamedShams/advisory-pulse/internal/domain"
    "github.com/HamedShams/advisory-pulse/internal/notify"
    "github.com/HamedShams/advisory-pulse/internal/rotation"
    "github.com/HamedShams/advisory-pulse/internal/state"
    "github.com/rs/zerolog"
)

// ErrRunInProgress reports that another full pass is still running in this
// process. The state file has a single-writer contract, so overlapping runs
// are refused rather than queued; callers treat it as a skip.
var ErrRunInProgress = errors.New("services: run already in progress")

type IssueSource interface {
    ListSecurityAdvisories(ctx context.Context) ([]domain.Advisory, error)
    AddCollaborators(ctx context.Context, ghsaID string, logins []string) error
}

type Mailer interface {
    Send(ctx context.Context, subject, body string) error
}

type Options struct {
    DryRun   bool
    NoExtend bool
    // Now is overridable in tests; defaults to time.Now.
    Now func() time.Time
}

type Service struct {
    cfg  config.Config
    log  zerolog.Logger
    gh   IssueSource
    mail Mailer
    opts Options

    runMu sync.Mutex

    mu   sync.Mutex
    last LastRun
}

type LastRun struct {
    StartedAt  time.Time  `json:"started_at"`
    FinishedAt *time.Time `json:"finished_at"`
    Notified   int        `json:"notified"`
    Appended   int        `json:"appended"`
    Success    bool       `json:"success"`
    Error      string     `json:"error"`
}

func New(cfg config.Config, log zerolog.Logger, gh IssueSource, mail Mailer, opts Options) *Service {
    if opts.Now == nil { opts.Now = time.Now }
    return &Service{cfg: cfg, log: log, gh: gh, mail: mail, opts: opts}
}

// RunOnce executes one full pass: load state, fetch advisories, diff, send
// the batch email, extend the rotation, persist. State is persisted only
// after every side effect has succeeded; any earlier failure leaves the
// file untouched so the next scheduled invocation retries the same delta.
// At most one pass runs at a time per Service; a second caller gets
// ErrRunInProgress without touching state.
func (s *Service) RunOnce(ctx context.Context) error {
    if !s.runMu.TryLock() { return ErrRunInProgress }
    defer s.runMu.Unlock()
    now := s.opts.Now().UTC()
    s.startRun(now)
    err := s.runOnce(ctx, now)
    s.finishRun(err)
    return err
}

func (s *Service) runOnce(ctx context.Context, now time.Time) error {
    st, err := state.Load(s.cfg.StateFile)
    if err != nil { return err }

    advisories, err := s.gh.ListSecurityAdvisories(ctx)
    if err != nil { return fmt.Errorf("fetch advisories: %w", err) }
    s.log.Info().Int("advisories", len(advisories)).Msg("unpublished advisories fetched")

    delta := notify.ComputeDelta(advisories, st.Notified)

    // Extend before sending anything: a bad rotation config must abort the
    // run before it has side effects.
    appended := 0
    if !s.opts.NoExtend {
        extended, err := rotation.Extend(st.Rotation, now, s.cfg.RotationHorizon, s.cfg.RotationPeriod)
        if err != nil { return err }
        appended = len(extended.Assignments) - len(st.Rotation.Assignments)
        st.Rotation = extended
    }
    s.recordProgress(len(delta.ToNotify), appended)

    oncall := s.oncallMembers(st.Rotation, now)

    if len(delta.ToNotify) > 0 {
        subject, body := notify.RenderDigest(s.cfg.GitHubRepo, delta.ToNotify, delta.Reasons, oncall)
        if s.opts.DryRun {
            s.log.Info().Int("count", len(delta.ToNotify)).Str("subject", subject).Msg("dry-run: would send digest email")
        } else if err := s.mail.Send(ctx, subject, body); err != nil {
            return fmt.Errorf("send digest: %w", err)
        }
    } else {
        s.log.Info().Msg("no new or changed advisories")
    }
    st.Notified = delta.Next

    if s.opts.NoExtend {
        st = s.maybeNagAboutRotationEnd(ctx, st, now)
    }

    if s.opts.DryRun {
        s.log.Info().Msg("dry-run: not persisting state")
        return nil
    }
    if err := st.Save(s.cfg.StateFile); err != nil {
        // The email already went out. Re-sending the same batch next run is
        // the accepted tradeoff over losing it silently.
        s.log.Error().Err(err).Msg("state write failed after send; next run may re-notify")
        return err
    }
    if appended > 0 { s.log.Info().Int("appended", appended).Msg("rotation extended") }
    return nil
}

// ExtendRotation runs only the rotation-extender pipeline, the equivalent
// of the notifier run with everything else switched off.
func (s *Service) ExtendRotation(ctx context.Context, horizon, period time.Duration) error {
    now := s.opts.Now().UTC()
    st, err := state.Load(s.cfg.StateFile)
    if err != nil { return err }

    extended, err := rotation.Extend(st.Rotation, now, horizon, period)
    if err != nil { return err }
    appended := extended.Assignments[len(st.Rotation.Assignments):]
    if len(appended) == 0 {
        s.log.Info().Time("covered_until", rotation.TailStart(st.Rotation)).Msg("rotation already covers horizon; nothing to append")
        return nil
    }
    for _, a := range appended {
        s.log.Info().Str("person", a.Person).Time("start", a.Start).Time("end", a.End).Msg("appending shift")
    }
    if s.opts.DryRun {
        s.log.Info().Int("appended", len(appended)).Msg("dry-run: not persisting schedule")
        return nil
    }
    st.Rotation = extended
    if err := st.Save(s.cfg.StateFile); err != nil { return err }
    s.log.Info().Int("appended", len(appended)).Msg("rotation extended")
    return nil
}

// AssignOncall adds the current on-call member as a collaborator on every
// unpublished advisory that has none. Per-advisory API failures are logged
// and skipped rather than aborting the sweep; the advisory is retried on
// the next invocation.
func (s *Service) AssignOncall(ctx context.Context) error {
    now := s.opts.Now().UTC()
    st, err := state.Load(s.cfg.StateFile)
    if err != nil { return err }

    cur, ok := rotation.Current(st.Rotation, now)
    if !ok {
        s.log.Info().Msg("no current rotation found; nothing to do")
        return nil
    }

    advisories, err := s.gh.ListSecurityAdvisories(ctx)
    if err != nil { return fmt.Errorf("fetch advisories: %w", err) }

    for _, a := range advisories {
        if contains(a.Collaborators, cur.Person) {
            s.log.Debug().Str("id", a.ID).Msg("advisory already has the on-call member as collaborator")
            continue
        }
        if s.opts.DryRun {
            s.log.Info().Str("id", a.ID).Str("person", cur.Person).Msg("dry-run: would add collaborator")
            continue
        }
        if err := s.gh.AddCollaborators(ctx, a.ID, []string{cur.Person}); err != nil {
            s.log.Warn().Err(err).Str("id", a.ID).Msg("adding collaborator failed")
        }
    }
    return nil
}

// maybeNagAboutRotationEnd sends the "schedule running short" email when the
// final shift's start is close and we haven't nagged within the interval.
// The alert timestamp is only advanced when the email actually went out, so
// a failed nag re-fires next run.
func (s *Service) maybeNagAboutRotationEnd(ctx context.Context, st state.File, now time.Time) state.File {
    tailStart := rotation.TailStart(st.Rotation)
    if !tailStart.IsZero() && tailStart.Sub(now) > s.cfg.NagWindow {
        s.log.Debug().Time("tail_start", tailStart).Msg("rotation end far enough out; no nag")
        return st
    }
    if st.LastRotationAlert != nil && now.Sub(*st.LastRotationAlert) < s.cfg.NagInterval {
        s.log.Debug().Time("last_alert", *st.LastRotationAlert).Msg("already nagged within interval")
        return st
    }

    subject, body := notify.RenderRotationNag(s.cfg.GitHubRepo, tailStart)
    if s.opts.DryRun {
        s.log.Info().Str("subject", subject).Msg("dry-run: would send rotation nag")
        st.LastRotationAlert = &now
        return st
    }
    if err := s.mail.Send(ctx, subject, body); err != nil {
        s.log.Error().Err(err).Msg("rotation nag email failed")
        return st
    }
    st.LastRotationAlert = &now
    return st
}

func (s *Service) oncallMembers(sched domain.Schedule, now time.Time) []string {
    if cur, ok := rotation.Current(sched, now); ok { return []string{cur.Person} }
    return nil
}

// GetLastRun reports the last run's outcome for the admin surface.
func (s *Service) GetLastRun(ctx context.Context) (any, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.last, nil
}

func (s *Service) startRun(now time.Time) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.last = LastRun{StartedAt: now}
}

func (s *Service) recordProgress(notified, appended int) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.last.Notified = notified
    s.last.Appended = appended
}

func (s *Service) finishRun(err error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    t := s.opts.Now().UTC()
    s.last.FinishedAt = &t
    s.last.Success = err == nil
    if err != nil { s.last.Error = err.Error() }
}

func contains(xs []string, want string) bool {
    for _, x := range xs {
        if x == want { return true }
    }
    return false
}
