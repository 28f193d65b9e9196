/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "errors"
    "net/http"

    "github.com/gin-gonic/gin"
    "github.com/HamedShams/advisory-pulse/internal/config"
    "github.com/HamedShams/advisory-pulse/internal/services"
    "github.com/rs/zerolog"
)

type service interface {
    RunOnce(ctx context.Context) error
    GetLastRun(ctx context.Context) (any, error)
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc any) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc.(service)}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) LastRun(c *gin.Context) {
    lr, err := h.svc.GetLastRun(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, lr)
}

func (h *Handlers) RunNow(c *gin.Context) {
    // Run in background detached from the HTTP request to avoid context cancellation
    go func(){
        err := h.svc.RunOnce(context.Background())
        if errors.Is(err, services.ErrRunInProgress) { h.log.Info().Msg("admin run skipped; another run in progress"); return }
        if err != nil { h.log.Error().Err(err).Msg("admin-triggered run failed") }
    }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
