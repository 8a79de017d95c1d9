package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/givecycle/marketplace/internal/model"
	"github.com/givecycle/marketplace/internal/services"
	xhttp "github.com/givecycle/marketplace/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockDonationService struct {
	mock.Mock
}

func (m *MockDonationService) Submit(ctx context.Context, p model.DonationCreateRequest) (*model.Donation, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) Review(ctx context.Context, p services.ReviewRequest) (*model.Donation, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) Get(ctx context.Context, id int64) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationService) List(ctx context.Context, f model.DonationFilter) ([]*model.Donation, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Donation), args.Get(1).(int64), args.Error(2)
}

type MockMarketplaceService struct {
	mock.Mock
}

func (m *MockMarketplaceService) CreateListing(ctx context.Context, p model.ListingCreateRequest) (*model.Listing, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockMarketplaceService) Get(ctx context.Context, id int64) (*model.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockMarketplaceService) ListAvailable(ctx context.Context, f model.ListingFilter) ([]*model.Listing, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Listing), args.Get(1).(int64), args.Error(2)
}

func (m *MockMarketplaceService) Purchase(ctx context.Context, buyerID, listingID int64) (*model.Transaction, error) {
	args := m.Called(ctx, buyerID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Append(ctx context.Context, p services.AppendRequest) (*model.Transaction, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockLedgerService) BalanceOf(ctx context.Context, accountID int64) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Transaction), args.Get(1).(int64), args.Error(2)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func TestDonationHandler_SubmitDonation(t *testing.T) {
	t.Run("successful submission", func(t *testing.T) {
		svc := new(MockDonationService)
		handler := NewDonationHandler(svc)

		reqBody := submitDonationRequest{
			DonorID:  1,
			Title:    "Winter coats",
			Category: "clothing",
			Value:    40,
		}
		bodyBytes, _ := json.Marshal(reqBody)

		expected := &model.Donation{
			ID:       7,
			DonorID:  1,
			Title:    "Winter coats",
			Category: "clothing",
			Value:    40,
			Status:   model.DonationStatusUploaded,
		}

		svc.On("Submit", mock.Anything, mock.MatchedBy(func(p model.DonationCreateRequest) bool {
			return p.DonorID == 1 && p.Title == "Winter coats"
		})).Return(expected, nil)

		ctx := setupTestContext("POST", "/api/v1/donations", bodyBytes)
		handler.SubmitDonation(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		var got model.Donation
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
		assert.Equal(t, int64(7), got.ID)
		assert.Equal(t, model.DonationStatusUploaded, got.Status)
		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		svc := new(MockDonationService)
		handler := NewDonationHandler(svc)

		ctx := setupTestContext("POST", "/api/v1/donations", []byte("{broken"))
		handler.SubmitDonation(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Submit")
	})

	t.Run("unknown donor maps to 403", func(t *testing.T) {
		svc := new(MockDonationService)
		handler := NewDonationHandler(svc)

		bodyBytes, _ := json.Marshal(submitDonationRequest{DonorID: 99, Title: "Books"})
		svc.On("Submit", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidParticipant)

		ctx := setupTestContext("POST", "/api/v1/donations", bodyBytes)
		handler.SubmitDonation(ctx)

		assert.Equal(t, 403, ctx.Response.StatusCode())
	})
}

func TestDonationHandler_ReviewDonation(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		svc := new(MockDonationService)
		handler := NewDonationHandler(svc)

		bodyBytes, _ := json.Marshal(reviewDonationRequest{
			ReviewerID: 2,
			Decision:   "approve",
			Price:      10,
			Credits:    15,
		})

		approved := &model.Donation{ID: 5, Status: model.DonationStatusApproved}
		svc.On("Review", mock.Anything, mock.MatchedBy(func(p services.ReviewRequest) bool {
			return p.DonationID == 5 && p.Decision == model.DecisionApprove && p.ReviewerID == 2
		})).Return(approved, nil)

		ctx := setupTestContext("POST", "/api/v1/donations/5/review", bodyBytes)
		ctx.SetUserValue("id", "5")
		handler.ReviewDonation(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("terminal donation maps to 409", func(t *testing.T) {
		svc := new(MockDonationService)
		handler := NewDonationHandler(svc)

		bodyBytes, _ := json.Marshal(reviewDonationRequest{ReviewerID: 2, Decision: "reject"})
		svc.On("Review", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidState)

		ctx := setupTestContext("POST", "/api/v1/donations/5/review", bodyBytes)
		ctx.SetUserValue("id", "5")
		handler.ReviewDonation(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("non-admin reviewer maps to 403", func(t *testing.T) {
		svc := new(MockDonationService)
		handler := NewDonationHandler(svc)

		bodyBytes, _ := json.Marshal(reviewDonationRequest{ReviewerID: 3, Decision: "approve"})
		svc.On("Review", mock.Anything, mock.Anything).Return(nil, services.ErrPermissionDenied)

		ctx := setupTestContext("POST", "/api/v1/donations/5/review", bodyBytes)
		ctx.SetUserValue("id", "5")
		handler.ReviewDonation(ctx)

		assert.Equal(t, 403, ctx.Response.StatusCode())
	})

	t.Run("bad path parameter", func(t *testing.T) {
		svc := new(MockDonationService)
		handler := NewDonationHandler(svc)

		ctx := setupTestContext("POST", "/api/v1/donations/abc/review", []byte("{}"))
		ctx.SetUserValue("id", "abc")
		handler.ReviewDonation(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Review")
	})
}

func TestDonationHandler_ListDonations(t *testing.T) {
	svc := new(MockDonationService)
	handler := NewDonationHandler(svc)

	svc.On("List", mock.Anything, mock.MatchedBy(func(f model.DonationFilter) bool {
		return f.DonorID != nil && *f.DonorID == 1 &&
			len(f.Statuses) == 2 &&
			f.Statuses[0] == model.DonationStatusUploaded &&
			f.Statuses[1] == model.DonationStatusApproved &&
			f.Limit == 10 && f.Desc
	})).Return([]*model.Donation{{ID: 1}}, int64(1), nil)

	ctx := setupTestContext("GET", "/api/v1/donations?donor_id=1&status=uploaded,approved&limit=10&order=desc", nil)
	handler.ListDonations(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	var resp donationListResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	assert.Len(t, resp.Items, 1)
	svc.AssertExpectations(t)
}

func TestMarketplaceHandler_PurchaseListing(t *testing.T) {
	t.Run("successful purchase", func(t *testing.T) {
		svc := new(MockMarketplaceService)
		handler := NewMarketplaceHandler(svc)

		bodyBytes, _ := json.Marshal(purchaseRequest{BuyerID: 4})
		txn := &model.Transaction{ID: 9, AccountID: 2, Amount: 15, Type: model.TransactionTypeCredit}
		svc.On("Purchase", mock.Anything, int64(4), int64(3)).Return(txn, nil)

		ctx := setupTestContext("POST", "/api/v1/listings/3/purchase", bodyBytes)
		ctx.SetUserValue("id", "3")
		handler.PurchaseListing(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var got model.Transaction
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
		assert.Equal(t, int64(9), got.ID)
		svc.AssertExpectations(t)
	})

	t.Run("consumed listing maps to 409", func(t *testing.T) {
		svc := new(MockMarketplaceService)
		handler := NewMarketplaceHandler(svc)

		bodyBytes, _ := json.Marshal(purchaseRequest{BuyerID: 4})
		svc.On("Purchase", mock.Anything, int64(4), int64(3)).Return(nil, services.ErrAlreadyUnavailable)

		ctx := setupTestContext("POST", "/api/v1/listings/3/purchase", bodyBytes)
		ctx.SetUserValue("id", "3")
		handler.PurchaseListing(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("declined payment maps to 502", func(t *testing.T) {
		svc := new(MockMarketplaceService)
		handler := NewMarketplaceHandler(svc)

		bodyBytes, _ := json.Marshal(purchaseRequest{BuyerID: 4})
		svc.On("Purchase", mock.Anything, int64(4), int64(3)).Return(nil, services.ErrPaymentFailed)

		ctx := setupTestContext("POST", "/api/v1/listings/3/purchase", bodyBytes)
		ctx.SetUserValue("id", "3")
		handler.PurchaseListing(ctx)

		assert.Equal(t, 502, ctx.Response.StatusCode())
	})

	t.Run("missing listing maps to 404", func(t *testing.T) {
		svc := new(MockMarketplaceService)
		handler := NewMarketplaceHandler(svc)

		bodyBytes, _ := json.Marshal(purchaseRequest{BuyerID: 4})
		svc.On("Purchase", mock.Anything, int64(4), int64(404)).Return(nil, services.ErrNotFound)

		ctx := setupTestContext("POST", "/api/v1/listings/404/purchase", bodyBytes)
		ctx.SetUserValue("id", "404")
		handler.PurchaseListing(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestMarketplaceHandler_ListListings(t *testing.T) {
	svc := new(MockMarketplaceService)
	handler := NewMarketplaceHandler(svc)

	svc.On("ListAvailable", mock.Anything, mock.MatchedBy(func(f model.ListingFilter) bool {
		return f.MinPrice != nil && *f.MinPrice == 5 &&
			f.MaxPrice != nil && *f.MaxPrice == 50 &&
			f.Category != nil && *f.Category == "books"
	})).Return([]*model.Listing{{ID: 1}, {ID: 2}}, int64(2), nil)

	ctx := setupTestContext("GET", "/api/v1/listings?category=books&min_price=5&max_price=50", nil)
	handler.ListListings(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	var resp listingListResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	svc.AssertExpectations(t)
}

func TestLedgerHandler_GetBalance(t *testing.T) {
	t.Run("balance returned", func(t *testing.T) {
		svc := new(MockLedgerService)
		handler := NewLedgerHandler(svc)

		svc.On("BalanceOf", mock.Anything, int64(2)).Return(int64(75), nil)

		ctx := setupTestContext("GET", "/api/v1/accounts/2/balance", nil)
		ctx.SetUserValue("id", "2")
		handler.GetBalance(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp balanceResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, int64(75), resp.Balance)
		assert.Equal(t, int64(2), resp.AccountID)
	})

	t.Run("unknown account maps to 404", func(t *testing.T) {
		svc := new(MockLedgerService)
		handler := NewLedgerHandler(svc)

		svc.On("BalanceOf", mock.Anything, int64(99)).Return(int64(0), services.ErrNotFound)

		ctx := setupTestContext("GET", "/api/v1/accounts/99/balance", nil)
		ctx.SetUserValue("id", "99")
		handler.GetBalance(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestLedgerHandler_AppendTransaction(t *testing.T) {
	t.Run("overdraft maps to 422", func(t *testing.T) {
		svc := new(MockLedgerService)
		handler := NewLedgerHandler(svc)

		bodyBytes, _ := json.Marshal(appendTransactionRequest{AccountID: 1, Amount: 500, Type: "debit"})
		svc.On("Append", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidAmount)

		ctx := setupTestContext("POST", "/api/v1/transactions", bodyBytes)
		handler.AppendTransaction(ctx)

		assert.Equal(t, 422, ctx.Response.StatusCode())
	})

	t.Run("credit appended", func(t *testing.T) {
		svc := new(MockLedgerService)
		handler := NewLedgerHandler(svc)

		bodyBytes, _ := json.Marshal(appendTransactionRequest{AccountID: 1, Amount: 20, Type: "credit"})
		txn := &model.Transaction{ID: 3, AccountID: 1, Amount: 20, Type: model.TransactionTypeCredit}
		svc.On("Append", mock.Anything, mock.MatchedBy(func(p services.AppendRequest) bool {
			return p.AccountID == 1 && p.Amount == 20 && p.Type == "credit"
		})).Return(txn, nil)

		ctx := setupTestContext("POST", "/api/v1/transactions", bodyBytes)
		handler.AppendTransaction(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})
}
