package fixtures

import (
	"time"

	"github.com/givecycle/marketplace/internal/model"
)

var (
	TestAdmin = model.User{
		ID:   1,
		Name: "Alex Admin",
		Role: model.RoleAdmin,
	}

	TestDonor = model.User{
		ID:   2,
		Name: "Dana Donor",
		Role: model.RoleDonor,
	}

	TestBusiness = model.User{
		ID:      3,
		Name:    "Bridge Cafe",
		Role:    model.RoleBusiness,
		Balance: 100,
	}

	TestBeneficiary = model.User{
		ID:   4,
		Name: "Billie Beneficiary",
		Role: model.RoleBeneficiary,
	}
)

func NewTestDonation(donorID int64, title, category string, value uint) *model.Donation {
	return &model.Donation{
		DonorID:   donorID,
		Title:     title,
		Category:  category,
		Value:     value,
		Status:    model.DonationStatusUploaded,
		CreatedAt: time.Now(),
	}
}

func NewTestDonationCreateRequest(donorID int64, title, category string, value uint) model.DonationCreateRequest {
	return model.DonationCreateRequest{
		DonorID:  donorID,
		Title:    title,
		Category: category,
		Value:    value,
	}
}

func NewTestListing(ownerID int64, title string, price, credits uint) *model.Listing {
	return &model.Listing{
		OwnerID:     ownerID,
		Title:       title,
		Category:    "general",
		Price:       price,
		Credits:     credits,
		IsAvailable: true,
		CreatedAt:   time.Now(),
	}
}

func NewTestTransaction(accountID int64, amount uint, txnType string, listingID *int64) *model.Transaction {
	return &model.Transaction{
		AccountID: accountID,
		Amount:    amount,
		Type:      txnType,
		ListingID: listingID,
	}
}

var (
	ValidCategories = []string{
		"clothing",
		"books",
		"furniture",
		"electronics",
		"food",
	}

	InvalidTitles = []string{
		"",
		"   ",
		"\n\t",
	}
)

func DonationRequestClothing() model.DonationCreateRequest {
	return NewTestDonationCreateRequest(2, "Winter coats", "clothing", 40)
}

func DonationRequestEmptyTitle() model.DonationCreateRequest {
	return NewTestDonationCreateRequest(2, "", "clothing", 40)
}

func ListingRequestCollection() model.ListingCreateRequest {
	return model.ListingCreateRequest{
		OwnerID:  3,
		Title:    "Day-old bread",
		Category: "food",
		Price:    0,
		Credits:  5,
	}
}

func ListingRequestSale() model.ListingCreateRequest {
	return model.ListingCreateRequest{
		OwnerID:  3,
		Title:    "Refurbished laptop",
		Category: "electronics",
		Price:    120,
		Credits:  30,
	}
}
