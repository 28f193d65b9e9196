package jobs

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/HamedShams/advisory-pulse/internal/config"
    "github.com/HamedShams/advisory-pulse/internal/services"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type service interface { RunOnce(ctx context.Context) error }

type Cron struct {
    cfg config.Config
    log zerolog.Logger
    svc service
    c   *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service) (*Cron, error) {
    loc, _ := time.LoadLocation(cfg.TZ)
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
    if _, err := c.AddFunc(cfg.RunCron, cr.run); err != nil {
        return nil, fmt.Errorf("invalid RUN_CRON %q: %w", cfg.RunCron, err)
    }
    return cr, nil
}

func (cr *Cron) Start(){ cr.c.Start() }
func (cr *Cron) Stop(){ cr.c.Stop() }

func (cr *Cron) run(){
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute); defer cancel()
    cr.log.Info().Msg("cron: advisory run")
    err := cr.svc.RunOnce(ctx)
    if errors.Is(err, services.ErrRunInProgress) { cr.log.Info().Msg("cron: run already in progress"); return }
    if err != nil { cr.log.Error().Err(err).Msg("cron: run failed") }
}
