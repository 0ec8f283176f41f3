package ledger

import (
	"fmt"

	"github.com/stitchdesk/stitchdesk/internal/platform/httpx"
)

// Domain errors wrap the httpx sentinels so handlers can map any failure to a
// response via errors.Is without inspecting ledger internals.
var (
	// Validation errors. No partial effects ever accompany these.
	ErrEmptyGarments      = fmt.Errorf("%w: at least one garment is required", httpx.ErrValidation)
	ErrInvalidQuantity    = fmt.Errorf("%w: garment quantity must be greater than zero", httpx.ErrValidation)
	ErrInvalidTotal       = fmt.Errorf("%w: total amount must be greater than zero", httpx.ErrValidation)
	ErrMissingDelivery    = fmt.Errorf("%w: delivery date is required", httpx.ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: payment amount must be greater than zero", httpx.ErrValidation)
	ErrExceedsPending     = fmt.Errorf("%w: payment amount exceeds pending balance", httpx.ErrValidation)
	ErrInvalidPaymentMode = fmt.Errorf("%w: unknown payment mode", httpx.ErrValidation)
	ErrInvalidPriority    = fmt.Errorf("%w: unknown priority", httpx.ErrValidation)
	ErrInvalidTransition  = fmt.Errorf("%w: fulfillment status may only move forward", httpx.ErrValidation)
	ErrNotATailor         = fmt.Errorf("%w: worker is not an active tailor", httpx.ErrValidation)
	ErrNothingPending     = fmt.Errorf("%w: invoice has no pending balance", httpx.ErrValidation)

	// Not-found errors.
	ErrOrderNotFound    = fmt.Errorf("%w: order", httpx.ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("%w: customer", httpx.ErrNotFound)
	ErrInvoiceNotFound  = fmt.Errorf("%w: invoice", httpx.ErrNotFound)
	ErrWorkerNotFound   = fmt.Errorf("%w: worker", httpx.ErrNotFound)

	// Conflict errors. The losing attempt has no partial effects.
	ErrRevisionMismatch    = fmt.Errorf("%w: order was modified concurrently", httpx.ErrConflict)
	ErrClientRefTaken      = fmt.Errorf("%w: client reference already used", httpx.ErrConflict)
	ErrDuplicateCollection = fmt.Errorf("%w: payment reference already processed", httpx.ErrConflict)
)
