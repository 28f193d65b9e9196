/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "errors"
    "fmt"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/HamedShams/advisory-pulse/internal/config"
    "github.com/HamedShams/advisory-pulse/internal/adapters/github"
    "github.com/HamedShams/advisory-pulse/internal/adapters/mail"
    httpx "github.com/HamedShams/advisory-pulse/internal/http"
    "github.com/HamedShams/advisory-pulse/internal/jobs"
    "github.com/HamedShams/advisory-pulse/internal/logger"
    "github.com/HamedShams/advisory-pulse/internal/rotation"
    "github.com/HamedShams/advisory-pulse/internal/services"
    "github.com/HamedShams/advisory-pulse/internal/state"
    "github.com/rs/zerolog"
    "github.com/spf13/cobra"
)

// errConfig marks operator-fixable failures so they exit with a distinct
// code and the external scheduler doesn't treat them as transient.
var errConfig = errors.New("configuration error")

var (
    flagStateFile string
    flagDebug     bool
    flagDryRun    bool
)

func main() {
    root := &cobra.Command{
        Use:           "advisory-pulse",
        Short:         "Emails the security team about draft advisories and keeps the on-call rotation scheduled",
        SilenceUsage:  true,
        SilenceErrors: true,
    }
    root.PersistentFlags().StringVar(&flagStateFile, "state-file", "", "path to the persisted state file (default from STATE_FILE)")
    root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
    root.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "log intended actions without sending email or writing state")

    root.AddCommand(runCmd(), extendCmd(), assignCmd(), serveCmd())

    if err := root.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(exitCode(err))
    }
}

func setup() (config.Config, zerolog.Logger) {
    cfg := config.Load()
    if flagStateFile != "" { cfg.StateFile = flagStateFile }
    log := logger.New(cfg, flagDebug)
    return cfg, log
}

func newService(cfg config.Config, log zerolog.Logger, opts services.Options) *services.Service {
    gh := github.NewClient(cfg, log)
    mc := mail.NewClient(cfg, log)
    return services.New(cfg, log, gh, mc, opts)
}

func runCmd() *cobra.Command {
    var noExtend bool
    cmd := &cobra.Command{
        Use:   "run",
        Short: "Run one notifier + rotation-extender pass",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, log := setup()
            if err := cfg.ValidateRun(); err != nil {
                return fmt.Errorf("%w: %v", errConfig, err)
            }
            svc := newService(cfg, log, services.Options{DryRun: flagDryRun, NoExtend: noExtend})
            return svc.RunOnce(cmd.Context())
        },
    }
    cmd.Flags().BoolVar(&noExtend, "no-extend", false, "skip rotation extension; nag by email when the schedule runs short")
    return cmd
}

func extendCmd() *cobra.Command {
    var horizon, period time.Duration
    cmd := &cobra.Command{
        Use:   "extend",
        Short: "Extend the on-call rotation to cover the look-ahead horizon",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, log := setup()
            if horizon == 0 { horizon = cfg.RotationHorizon }
            if period == 0 { period = cfg.RotationPeriod }
            svc := newService(cfg, log, services.Options{DryRun: flagDryRun})
            return svc.ExtendRotation(cmd.Context(), horizon, period)
        },
    }
    cmd.Flags().DurationVar(&horizon, "horizon", 0, "minimum future span the schedule must cover (default ROTATION_HORIZON)")
    cmd.Flags().DurationVar(&period, "period", 0, "length of one shift (default ROTATION_PERIOD)")
    return cmd
}

func assignCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "assign",
        Short: "Add the current on-call member as collaborator on advisories that have none",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, log := setup()
            if err := cfg.ValidateAssign(); err != nil {
                return fmt.Errorf("%w: %v", errConfig, err)
            }
            start := time.Now()
            svc := newService(cfg, log, services.Options{DryRun: flagDryRun})
            err := svc.AssignOncall(cmd.Context())
            // CI logs are public; pad short runs so response timing doesn't
            // reveal whether an advisory existed.
            if rest := cfg.MinRuntime - time.Since(start); rest > 0 {
                log.Info().Dur("sleep", rest).Msg("padding run to minimum duration")
                time.Sleep(rest)
            }
            return err
        },
    }
    return cmd
}

func serveCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "serve",
        Short: "Run as a daemon: scheduled passes plus the admin HTTP surface",
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, log := setup()
            if err := cfg.ValidateRun(); err != nil {
                return fmt.Errorf("%w: %v", errConfig, err)
            }
            svc := newService(cfg, log, services.Options{DryRun: flagDryRun})

            cron, err := jobs.NewCron(cfg, log, svc)
            if err != nil {
                return fmt.Errorf("%w: %v", errConfig, err)
            }
            cron.Start()
            defer cron.Stop()

            router := httpx.NewRouter(cfg, log, svc)
            errCh := make(chan error, 1)
            go func() { errCh <- router.Run(cfg.HTTPAddr) }()

            sigCh := make(chan os.Signal, 1)
            signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

            select {
            case <-sigCh:
                log.Info().Msg("shutting down...")
            case err := <-errCh:
                if err != nil { log.Error().Err(err).Msg("http server error"); return err }
            }
            time.Sleep(500 * time.Millisecond)
            return nil
        },
    }
}

func exitCode(err error) int {
    switch {
    case errors.Is(err, errConfig),
        errors.Is(err, rotation.ErrEmptyPool),
        errors.Is(err, rotation.ErrBadPeriod),
        errors.Is(err, state.ErrCorrupt):
        return 2
    default:
        return 1
    }
}
