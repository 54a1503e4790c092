package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/api/transport"
	"github.com/fastygo/teamtasks/pkg/httpcontext"
	timeUC "github.com/fastygo/teamtasks/usecase/timetrack"
)

type TimeHandler struct {
	baseHandler
	uc *timeUC.UseCase
}

func NewTimeHandler(uc *timeUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TimeHandler {
	return &TimeHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Submit time spent on a task
// @Tags time
// @Router /api/v1/tasks/{id}/time [post]
func (h *TimeHandler) Submit(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}
	var req transport.TimeRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	spent, err := h.uc.Submit(stdCtx, user.ID, pathParam(ctx, "id"), req.Submission())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"time_spent": spent,
		"formatted":  timeUC.FormatDuration(spent.Seconds),
	})
}

// @Summary Total time spent on a task
// @Tags time
// @Router /api/v1/tasks/{id}/time [get]
func (h *TimeHandler) Total(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	total, err := h.uc.Total(stdCtx, user.ID, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"seconds":   total,
		"formatted": timeUC.FormatDuration(total),
	})
}

// @Summary Reset time spent on a task
// @Tags time
// @Router /api/v1/tasks/{id}/time [delete]
func (h *TimeHandler) Reset(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	scope := string(ctx.QueryArgs().Peek("scope"))
	if err := h.uc.Reset(stdCtx, user.ID, pathParam(ctx, "id"), scope); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Time report
// @Tags time
// @Router /api/v1/reports/time [get]
func (h *TimeHandler) Summary(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	summary, err := h.uc.Summary(stdCtx, user.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, summary)
}
