package jobs

import (
    "context"
    "testing"

    "github.com/HamedShams/advisory-pulse/internal/config"
    "github.com/rs/zerolog"
)

type nopService struct{}

func (nopService) RunOnce(ctx context.Context) error { return nil }

func TestNewCron_RejectsBadSchedule(t *testing.T) {
    cfg := config.Load()
    cfg.RunCron = "not a schedule"
    if _, err := NewCron(cfg, zerolog.Nop(), nopService{}); err == nil {
        t.Fatalf("expected an error for an unparsable schedule")
    }
}

func TestNewCron_AcceptsFiveFieldSchedule(t *testing.T) {
    cfg := config.Load()
    cfg.RunCron = "*/30 * * * *"
    if _, err := NewCron(cfg, zerolog.Nop(), nopService{}); err != nil {
        t.Fatalf("NewCron failed: %v", err)
    }
}
