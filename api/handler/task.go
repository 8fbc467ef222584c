package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasker/api/transport"
	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/internal/services"
	"github.com/fastygo/tasker/pkg/httpcontext"
	"github.com/fastygo/tasker/usecase/query"
)

type TaskHandler struct {
	baseHandler
	workspace *services.Workspace
}

func NewTaskHandler(ws *services.Workspace, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		workspace:   ws,
	}
}

// @Summary List tasks with statistics
// @Tags tasks
// @Param filter query string false "all|completed|pending|high|work|personal|study"
// @Param q query string false "search term"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	filter, err := query.ParseFilter(string(ctx.QueryArgs().Peek("filter")))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	view, err := h.workspace.View(filter, string(ctx.QueryArgs().Peek("q")))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	input, err := req.ToInput()
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	created, err := h.workspace.CreateTask(stdCtx, input)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task fields
// @Tags tasks
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskPatchRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch, err := req.ToPatch()
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	updated, found, err := h.workspace.UpdateTask(stdCtx, taskID(ctx), patch)
	h.respondTask(stdCtx, ctx, updated, found, err)
}

// @Summary Toggle completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	toggled, found, err := h.workspace.ToggleTask(stdCtx, taskID(ctx))
	h.respondTask(stdCtx, ctx, toggled, found, err)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	found, err := h.workspace.DeleteTask(stdCtx, taskID(ctx))
	if err == nil && !found {
		err = domain.ErrTaskNotFound
	}
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// respondTask reports an unknown id as 404; the store itself treats it as a
// no-op.
func (h *TaskHandler) respondTask(stdCtx context.Context, ctx *fasthttp.RequestCtx, task domain.Task, found bool, err error) {
	if err == nil && !found {
		err = domain.ErrTaskNotFound
	}
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

func taskID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}
