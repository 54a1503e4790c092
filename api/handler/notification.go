package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/pkg/httpcontext"
	notificationUC "github.com/fastygo/teamtasks/usecase/notification"
)

type NotificationHandler struct {
	baseHandler
	uc *notificationUC.UseCase
}

func NewNotificationHandler(uc *notificationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Due-soon notifications
// @Tags notifications
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.Collect(stdCtx, user.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if items == nil {
		items = []notificationUC.Notification{}
	}
	h.respondSuccess(ctx, http.StatusOK, items)
}

// @Summary Mark a task notification as seen
// @Tags notifications
// @Router /api/v1/tasks/{id}/seen [post]
func (h *NotificationHandler) MarkSeen(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.MarkSeen(stdCtx, user.ID, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}
