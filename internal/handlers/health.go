package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusOK       = "ok"
	statusError    = "error"
	statusDisabled = "disabled"
)

type healthResponse struct {
	Status      string `json:"status"`
	Store       string `json:"store"`
	Cache       string `json:"cache"`
	Storage     string `json:"storage"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      statusOK,
		Store:       h.probe(ctx, "store", h.store),
		Cache:       h.probe(ctx, "cache", h.cache),
		Storage:     h.probe(ctx, "storage", h.storage),
		Environment: h.cfg.Environment,
	}

	code := http.StatusOK
	if resp.Store == statusError || resp.Cache == statusError || resp.Storage == statusError {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, resp)
}

func (h HandlerSet) probe(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return statusDisabled
	}
	if err := p.Ping(ctx); err != nil {
		h.log.Error().Err(err).Str("dependency", name).Msg("health ping failed")
		return statusError
	}
	return statusOK
}
