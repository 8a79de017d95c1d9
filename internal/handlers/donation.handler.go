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

type DonationService interface {
	Submit(ctx context.Context, p model.DonationCreateRequest) (*model.Donation, error)
	Review(ctx context.Context, p services.ReviewRequest) (*model.Donation, error)
	Get(ctx context.Context, id int64) (*model.Donation, error)
	List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error)
}

type DonationHandler struct {
	svc DonationService
}

func RegisterDonationRoutes(e *router.Group, h *DonationHandler) {
	e.POST("/donations", h.SubmitDonation)
	e.GET("/donations", h.ListDonations)
	e.GET("/donations/{id}", h.GetDonation)
	e.POST("/donations/{id}/review", h.ReviewDonation)
}

func NewDonationHandler(svc DonationService) *DonationHandler {
	return &DonationHandler{svc: svc}
}

type submitDonationRequest struct {
	DonorID  int64  `json:"donor_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Value    uint   `json:"value"`
}

type reviewDonationRequest struct {
	ReviewerID int64  `json:"reviewer_id"`
	Decision   string `json:"decision"`
	Price      uint   `json:"price"`
	Credits    uint   `json:"credits"`
}

type donationListResponse struct {
	Items []*model.Donation `json:"items"`
	Total int64             `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *DonationHandler) SubmitDonation(ctx *xhttp.RequestCtx) {
	var req submitDonationRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	d, err := h.svc.Submit(ctx, model.DonationCreateRequest{
		DonorID:  req.DonorID,
		Title:    req.Title,
		Category: req.Category,
		Value:    req.Value,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, d)
}

func (h *DonationHandler) ReviewDonation(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid donation id")
		return
	}
	var req reviewDonationRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	d, err := h.svc.Review(ctx, services.ReviewRequest{
		ReviewerID: req.ReviewerID,
		DonationID: id,
		Decision:   model.ReviewDecision(req.Decision),
		Price:      req.Price,
		Credits:    req.Credits,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, d)
}

func (h *DonationHandler) GetDonation(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid donation id")
		return
	}
	d, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, d)
}

func (h *DonationHandler) ListDonations(ctx *xhttp.RequestCtx) {
	var f model.DonationFilter

	if v := query(ctx, "donor_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.DonorID = &id
		}
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.DonationStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "category"); v != "" {
		f.Category = &v
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
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

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, donationListResponse{Items: items, Total: total})
}
