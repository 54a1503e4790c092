package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/api/transport"
	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/pkg/httpcontext"
	"github.com/fastygo/teamtasks/repository"
	taskUC "github.com/fastygo/teamtasks/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List team tasks
// @Tags tasks
// @Router /api/v1/teams/{id}/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}
	filter, err := parseFilter(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.List(stdCtx, user.ID, pathParam(ctx, "id"), filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/teams/{id}/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}
	in, ok := h.parseTask(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Create(stdCtx, user, pathParam(ctx, "id"), in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, task)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, user.ID, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}
	in, ok := h.parseTask(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Update(stdCtx, user, pathParam(ctx, "id"), in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
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

// @Summary Toggle completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/completion [post]
func (h *TaskHandler) ToggleCompletion(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.ToggleCompletion(stdCtx, user, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Set assignees
// @Tags tasks
// @Router /api/v1/tasks/{id}/assignees [put]
func (h *TaskHandler) SetAssignees(ctx *fasthttp.RequestCtx) {
	user := h.currentUser(ctx)
	if user == nil {
		return
	}
	var req transport.AssigneesRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.SetAssignees(stdCtx, user, pathParam(ctx, "id"), req.Usernames)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

func (h *TaskHandler) parseTask(ctx *fasthttp.RequestCtx) (taskUC.Input, bool) {
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return taskUC.Input{}, false
	}

	var due time.Time
	if req.DueDate != "" {
		parsed, err := domain.ParseDate(req.DueDate)
		if err != nil {
			h.respondError(ctx, err)
			return taskUC.Input{}, false
		}
		due = parsed
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		h.respondError(ctx, err)
		return taskUC.Input{}, false
	}

	return taskUC.Input{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      due,
		Priority:     priority,
		ReminderDays: req.ReminderDays,
	}, true
}

// maxListLimit caps one page of the task listing endpoint.
const maxListLimit = 100

func listLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func parseFilter(args *fasthttp.Args) (repository.TaskFilter, error) {
	filter := repository.TaskFilter{
		Search: strings.TrimSpace(string(args.Peek("q"))),
		Limit:  listLimit(parseInt(string(args.Peek("limit")), 0)),
		Offset: parseInt(string(args.Peek("offset")), 0),
	}

	if raw := string(args.Peek("priority")); raw != "" {
		priority, err := domain.ParsePriority(raw)
		if err != nil {
			return filter, err
		}
		filter.Priority = priority
	}
	if raw := string(args.Peek("completed")); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, domain.Invalidf("completed must be true or false")
		}
		filter.Completed = &completed
	}
	switch sort := string(args.Peek("sort")); sort {
	case repository.SortDefault, repository.SortDueAsc, repository.SortDueDesc:
		filter.Sort = sort
	default:
		return filter, domain.Invalidf("sort must be %q or %q", repository.SortDueAsc, repository.SortDueDesc)
	}
	return filter, nil
}
