package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/givecycle/marketplace/internal/model"
	xhttp "github.com/givecycle/marketplace/pkg/http"
)

type MarketplaceService interface {
	CreateListing(ctx context.Context, p model.ListingCreateRequest) (*model.Listing, error)
	Get(ctx context.Context, id int64) (*model.Listing, error)
	ListAvailable(ctx context.Context, f model.ListingFilter) ([]*model.Listing, int64, error)
	Purchase(ctx context.Context, buyerID, listingID int64) (*model.Transaction, error)
}

type MarketplaceHandler struct {
	svc MarketplaceService
}

func RegisterMarketplaceRoutes(e *router.Group, h *MarketplaceHandler) {
	e.POST("/listings", h.CreateListing)
	e.GET("/listings", h.ListListings)
	e.GET("/listings/{id}", h.GetListing)
	e.POST("/listings/{id}/purchase", h.PurchaseListing)
}

func NewMarketplaceHandler(svc MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{svc: svc}
}

type createListingRequest struct {
	OwnerID  int64  `json:"owner_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Price    uint   `json:"price"`
	Credits  uint   `json:"credits"`
}

type purchaseRequest struct {
	BuyerID int64 `json:"buyer_id"`
}

type listingListResponse struct {
	Items []*model.Listing `json:"items"`
	Total int64            `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *MarketplaceHandler) CreateListing(ctx *xhttp.RequestCtx) {
	var req createListingRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	l, err := h.svc.CreateListing(ctx, model.ListingCreateRequest{
		OwnerID:  req.OwnerID,
		Title:    req.Title,
		Category: req.Category,
		Price:    req.Price,
		Credits:  req.Credits,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, l)
}

func (h *MarketplaceHandler) GetListing(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid listing id")
		return
	}
	l, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, l)
}

func (h *MarketplaceHandler) PurchaseListing(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid listing id")
		return
	}
	var req purchaseRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	txn, err := h.svc.Purchase(ctx, req.BuyerID, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, txn)
}

func (h *MarketplaceHandler) ListListings(ctx *xhttp.RequestCtx) {
	var f model.ListingFilter

	if v := query(ctx, "owner_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.OwnerID = &id
		}
	}
	if v := query(ctx, "category"); v != "" {
		f.Category = &v
	}
	if v := query(ctx, "min_price"); v != "" {
		if n, e := strconv.ParseUint(v, 10, 32); e == nil {
			p := uint(n)
			f.MinPrice = &p
		}
	}
	if v := query(ctx, "max_price"); v != "" {
		if n, e := strconv.ParseUint(v, 10, 32); e == nil {
			p := uint(n)
			f.MaxPrice = &p
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

	items, total, err := h.svc.ListAvailable(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, listingListResponse{Items: items, Total: total})
}
