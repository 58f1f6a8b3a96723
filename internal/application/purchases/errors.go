package purchases

import "metallix-backend/internal/pkg/apperror"

var (
	ErrPurchaseNotFound  = apperror.NotFound("Purchase not found")
	ErrAlreadySold       = apperror.Conflict("Purchase is already sold")
	ErrInvalidQuantity   = apperror.Validation("quantity must be a positive number")
	ErrQuantityPrecision = apperror.Validation("quantity supports at most 4 decimal places")
	ErrInvalidMethod     = apperror.Validation("paymentMethod must be one of CASH, BANK, CARD")
	ErrMissingMetalID    = apperror.Validation("metalId is required")
	ErrUnauthenticated   = apperror.Unauthenticated("Authentication required.")
)
