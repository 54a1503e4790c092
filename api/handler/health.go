package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/api/transport"
	"github.com/fastygo/teamtasks/internal/infrastructure/monitor"
	"github.com/fastygo/teamtasks/pkg/httpcontext"
)

// StatusSource is satisfied by *monitor.Monitor.
type StatusSource interface {
	GetStatus() monitor.Status
}

// BreakerSource reports the activity store circuit breaker state.
type BreakerSource interface {
	State() gobreaker.State
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
	breaker BreakerSource
}

func NewHealthHandler(mon StatusSource, breaker BreakerSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		breaker:     breaker,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	services := map[string]interface{}{
		"storage":  status.Storage,
		"database": status.Database,
		"redis":    status.Redis,
		"buffer": map[string]interface{}{
			"online": status.Buffer,
			"size":   status.BufferSize,
		},
	}
	if h.breaker != nil {
		services["activity_breaker"] = h.breaker.State().String()
	}
	payload := map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"last_check": status.LastCheck,
		"services":   services,
	}

	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
