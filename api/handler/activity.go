package handler

import (
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/httpcontext"
	activityUC "github.com/fastygo/teamtasks/usecase/activity"
	teamUC "github.com/fastygo/teamtasks/usecase/team"
)

type ActivityHandler struct {
	baseHandler
	recorder *activityUC.Recorder
	teams    *teamUC.UseCase
}

func NewActivityHandler(recorder *activityUC.Recorder, teams *teamUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		recorder:    recorder,
		teams:       teams,
	}
}

// @Summary Member activity log
// @Tags activity
// @Router /api/v1/teams/{id}/members/{userID}/activity [get]
func (h *ActivityHandler) Page(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}
	teamID := pathParam(ctx, "id")
	memberID := pathParam(ctx, "userID")
	number := parseInt(string(ctx.QueryArgs().Peek("page")), 1)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	team, err := h.teams.RequireMember(stdCtx, teamID, user.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if !team.HasMember(memberID) {
		h.respondError(ctx, domain.ErrUserNotFound)
		return
	}

	page, err := h.recorder.Page(stdCtx, memberID, number)
	if errors.Is(err, domain.ErrActivityNotFound) {
		page = &activityUC.Page{Entries: []domain.ActivityEntry{}, Number: 1, Pages: 1}
		err = nil
	}
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, page)
}
