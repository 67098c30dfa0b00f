package bridge

import (
	"errors"

	"github.com/dloop-protocol/bridge-engine/pkg/apperrors"
)

// Sentinel errors returned by engine operations. All are ServiceError values,
// so callers can branch on identity with errors.Is or on category with
// apperrors.Is.
var (
	// Validation
	ErrInvalidAmount     = apperrors.New(apperrors.CategoryValidation, "amount must be positive")
	ErrInvalidTransferID = apperrors.New(apperrors.CategoryValidation, "transfer id must not be empty")
	ErrInvalidRecipient  = apperrors.New(apperrors.CategoryValidation, "recipient address is malformed")
	ErrUnsupportedToken  = apperrors.New(apperrors.CategoryValidation, "token is not actively mapped")
	ErrLimitExceeded     = apperrors.New(apperrors.CategoryValidation, "amount exceeds the transfer cap")
	ErrInvalidThreshold  = apperrors.New(apperrors.CategoryValidation, "threshold must be between 1 and the validator count")

	// Authorization
	ErrUnauthorized = apperrors.New(apperrors.CategoryUnauthorized, "caller lacks the required role")
	ErrNotValidator = apperrors.New(apperrors.CategoryUnauthorized, "caller is not a registered validator")

	// Lookup
	ErrTransferNotFound = apperrors.New(apperrors.CategoryNotFound, "transfer not found")
	ErrMappingNotFound  = apperrors.New(apperrors.CategoryNotFound, "token mapping not found")

	// State conflicts
	ErrDuplicateApproval       = apperrors.New(apperrors.CategoryConflict, "validator has already approved this transfer")
	ErrParameterMismatch       = apperrors.New(apperrors.CategoryConflict, "approval parameters do not match the recorded transfer")
	ErrAlreadyCompleted        = apperrors.New(apperrors.CategoryConflict, "transfer is already completed")
	ErrTransferAlreadyResolved = apperrors.New(apperrors.CategoryConflict, "transfer has already been resolved")
	ErrNotQuorate              = apperrors.New(apperrors.CategoryConflict, "transfer has not reached quorum")
	ErrNotTimelocked           = apperrors.New(apperrors.CategoryConflict, "transfer is not under timelock")
	ErrTimelockActive          = apperrors.New(apperrors.CategoryConflict, "timelock release time has not elapsed")
	ErrLivenessTimeoutActive   = apperrors.New(apperrors.CategoryConflict, "liveness timeout has not elapsed")
	ErrCooldownActive          = apperrors.New(apperrors.CategoryConflict, "sender is within the cooldown window")
	ErrNotCancellable          = apperrors.New(apperrors.CategoryConflict, "transfer can no longer be cancelled")
	ErrMappingConflict         = apperrors.New(apperrors.CategoryConflict, "token is already mapped to a different counterpart")

	// Resources
	ErrInsufficientEscrowLiquidity = apperrors.New(apperrors.CategoryResourceExhausted, "insufficient escrow liquidity")

	// Operational
	ErrBridgePaused = apperrors.New(apperrors.CategoryUnavailable, "bridge is paused")
)

// categoryLabel maps an error to a stable metrics label.
func categoryLabel(err error) string {
	var svcErr *apperrors.ServiceError
	if !errors.As(err, &svcErr) {
		return "general"
	}
	switch svcErr.Category {
	case apperrors.CategoryValidation:
		return "validation"
	case apperrors.CategoryUnauthorized:
		return "unauthorized"
	case apperrors.CategoryNotFound:
		return "not_found"
	case apperrors.CategoryConflict:
		return "conflict"
	case apperrors.CategoryResourceExhausted:
		return "resource_exhausted"
	case apperrors.CategoryUnavailable:
		return "unavailable"
	default:
		return "general"
	}
}
