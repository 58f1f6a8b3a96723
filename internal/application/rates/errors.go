package rates

import "metallix-backend/internal/pkg/apperror"

var (
	ErrMetalNotFound  = apperror.NotFound("Metal not found")
	ErrForbidden      = apperror.Forbidden("Admin access required.")
	ErrEmptyBatch     = apperror.Validation("rates must contain at least one entry")
	ErrInvalidRate    = apperror.Validation("newRate must be a positive number")
	ErrRatePrecision  = apperror.Validation("newRate supports at most 4 decimal places")
	ErrMissingMetalID = apperror.Validation("metalId is required")
	ErrDuplicateMetal = apperror.Validation("each metal may appear only once per batch")
)
