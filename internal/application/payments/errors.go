package payments

import "metallix-backend/internal/pkg/apperror"

var (
	ErrPaymentNotFound = apperror.NotFound("Payment not found")
	ErrForbidden       = apperror.Forbidden("Admin access required.")
	ErrUnauthenticated = apperror.Unauthenticated("Authentication required.")
	ErrInvalidStatus   = apperror.Validation("status must be one of PENDING, COMPLETED, FAILED")
	ErrAlreadySettled  = apperror.Conflict("Payment is already settled")
)
