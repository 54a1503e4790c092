package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/api/transport"
	"github.com/fastygo/teamtasks/pkg/httpcontext"
	teamUC "github.com/fastygo/teamtasks/usecase/team"
)

type TeamHandler struct {
	baseHandler
	uc *teamUC.UseCase
}

func NewTeamHandler(uc *teamUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List the caller's teams
// @Tags teams
// @Router /api/v1/teams [get]
func (h *TeamHandler) List(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	teams, err := h.uc.ListForUser(stdCtx, user.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, teams)
}

// @Summary Create team
// @Tags teams
// @Router /api/v1/teams [post]
func (h *TeamHandler) Create(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}
	var req transport.TeamRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	team, err := h.uc.Create(stdCtx, user, req.Name)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, team)
}

// @Summary Get team with members
// @Tags teams
// @Router /api/v1/teams/{id} [get]
func (h *TeamHandler) Get(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	details, err := h.uc.Get(stdCtx, user.ID, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, details)
}

// @Summary Delete team
// @Tags teams
// @Router /api/v1/teams/{id} [delete]
func (h *TeamHandler) Delete(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, user, pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Add team member
// @Tags teams
// @Router /api/v1/teams/{id}/members [post]
func (h *TeamHandler) AddMember(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}
	var req transport.MemberRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	team, err := h.uc.AddMember(stdCtx, user, pathParam(ctx, "id"), req.Username)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, team)
}

// @Summary Remove team member
// @Tags teams
// @Router /api/v1/teams/{id}/members/{username} [delete]
func (h *TeamHandler) RemoveMember(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	team, err := h.uc.RemoveMember(stdCtx, user, pathParam(ctx, "id"), pathParam(ctx, "username"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, team)
}
