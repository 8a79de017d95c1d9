package services

import "errors"

// Service-level errors. Handlers map these onto HTTP statuses; repositories
// never leak their own sentinels past this package.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidState       = errors.New("resource is in a terminal state")
	ErrAlreadyUnavailable = errors.New("listing is no longer available")
	ErrInvalidParticipant = errors.New("participant is not valid for this operation")
	ErrInvalidAmount      = errors.New("amount exceeds available balance")
	ErrPaymentFailed      = errors.New("payment authorization failed")
	ErrPermissionDenied   = errors.New("role does not permit this operation")
)
