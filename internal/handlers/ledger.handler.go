package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/services"
	xhttp "github.com/givecycle/marketplace/pkg/http"
)

type LedgerService interface {
	Append(ctx context.Context, p services.AppendRequest) (*model.Transaction, error)
	BalanceOf(ctx context.Context, accountID int64) (int64, error)
	History(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}

type LedgerHandler struct {
	svc LedgerService
}

func RegisterLedgerRoutes(e *router.Group, h *LedgerHandler) {
	e.GET("/accounts/{id}/balance", h.GetBalance)
	e.GET("/accounts/{id}/transactions", h.ListTransactions)
	e.POST("/transactions", h.AppendTransaction)
}

func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

type appendTransactionRequest struct {
	AccountID      int64  `json:"account_id"`
	CounterpartyID *int64 `json:"counterparty_id,omitempty"`
	Amount         uint   `json:"amount"`
	Type           string `json:"type"`
}

type balanceResponse struct {
	AccountID int64 `json:"account_id"`
	Balance   int64 `json:"balance"`
}

type transactionListResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *LedgerHandler) GetBalance(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid account id")
		return
	}
	balance, err := h.svc.BalanceOf(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, balanceResponse{AccountID: id, Balance: balance})
}

func (h *LedgerHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid account id")
		return
	}
	f := model.TransactionFilter{AccountID: &id}

	if v := query(ctx, "type"); v != "" {
		f.Type = &v
	}
	if v := query(ctx, "listing_id"); v != "" {
		if lid, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.ListingID = &lid
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.History(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, transactionListResponse{Items: items, Total: total})
}

// AppendTransaction is the admin escape hatch for compensating entries.
func (h *LedgerHandler) AppendTransaction(ctx *xhttp.RequestCtx) {
	var req appendTransactionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	txn, err := h.svc.Append(ctx, services.AppendRequest{
		AccountID:      req.AccountID,
		CounterpartyID: req.CounterpartyID,
		Amount:         req.Amount,
		Type:           req.Type,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, txn)
}
