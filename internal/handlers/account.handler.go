package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/services"
	xhttp "github.com/givecycle/marketplace/pkg/http"
)

type AccountService interface {
	Register(ctx context.Context, p services.RegisterRequest) (*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	Notifications(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)
}

type AccountHandler struct {
	svc AccountService
}

func RegisterAccountRoutes(e *router.Group, h *AccountHandler) {
	e.POST("/users", h.RegisterUser)
	e.GET("/users/{id}", h.GetUser)
	e.GET("/users/{id}/notifications", h.ListNotifications)
}

func NewAccountHandler(svc AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type registerUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *AccountHandler) RegisterUser(ctx *xhttp.RequestCtx) {
	var req registerUserRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	u, err := h.svc.Register(ctx, services.RegisterRequest{
		Name: req.Name,
		Role: model.Role(req.Role),
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, u)
}

func (h *AccountHandler) GetUser(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid user id")
		return
	}
	u, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, u)
}

func (h *AccountHandler) ListNotifications(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid user id")
		return
	}
	limit := 0
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}
	items, err := h.svc.Notifications(ctx, id, limit)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": items})
}
