package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasker/api/transport"
	"github.com/fastygo/tasker/internal/services"
	"github.com/fastygo/tasker/pkg/httpcontext"
	authUC "github.com/fastygo/tasker/usecase/auth"
)

// AuthHandler exposes the session state machine. Sign-in endpoints answer
// 202 with the loading session unless the caller asks to wait.
type AuthHandler struct {
	baseHandler
	workspace *services.Workspace
	events    *services.EventLog
}

func NewAuthHandler(ws *services.Workspace, events *services.EventLog, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		workspace:   ws,
		events:      events,
	}
}

// @Summary Current session
// @Tags auth
// @Router /api/v1/session [get]
func (h *AuthHandler) Session(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.workspace.Session())
}

// @Summary Sign in with email and password
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.start(ctx, func(c context.Context) (*authUC.Pending, error) {
		return h.workspace.Auth.Login(c, req.Email, req.Password)
	})
}

// @Summary Register a new account
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}
	h.start(ctx, func(c context.Context) (*authUC.Pending, error) {
		return h.workspace.Auth.Register(c, req.Name, req.Email, req.Password)
	})
}

// @Summary Sign in with Google
// @Tags auth
// @Router /api/v1/auth/google [post]
func (h *AuthHandler) Google(ctx *fasthttp.RequestCtx) {
	h.start(ctx, h.workspace.Auth.LoginWithGoogle)
}

// @Summary Sign in with Facebook
// @Tags auth
// @Router /api/v1/auth/facebook [post]
func (h *AuthHandler) Facebook(ctx *fasthttp.RequestCtx) {
	h.start(ctx, h.workspace.Auth.LoginWithFacebook)
}

// @Summary Sign out
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.workspace.Auth.Logout(stdCtx); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.workspace.Session())
}

// @Summary Drain pending notifications
// @Tags auth
// @Router /api/v1/events [get]
func (h *AuthHandler) Events(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.events.Drain())
}

// start launches a sign-in. With ?wait=true the response carries the settled
// session instead of the loading one.
func (h *AuthHandler) start(ctx *fasthttp.RequestCtx, op func(context.Context) (*authUC.Pending, error)) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	pending, err := op(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	if wait, _ := strconv.ParseBool(string(ctx.QueryArgs().Peek("wait"))); wait {
		session, err := pending.Wait(stdCtx)
		if err != nil && stdCtx.Err() != nil {
			h.respondSuccess(ctx, http.StatusAccepted, h.workspace.Session())
			return
		}
		h.respondSuccess(ctx, http.StatusOK, session)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, h.workspace.Session())
}
