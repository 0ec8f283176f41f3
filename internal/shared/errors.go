package shared

import (
	"fmt"

	"github.com/stitchdesk/stitchdesk/internal/platform/httpx"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = fmt.Errorf("%w: record", httpx.ErrNotFound)
	// ErrDuplicateMobile indicates a customer with the same mobile exists.
	ErrDuplicateMobile = fmt.Errorf("%w: mobile number already registered", httpx.ErrValidation)
	// ErrHasOrders indicates a record still referenced by orders.
	ErrHasOrders = fmt.Errorf("%w: orders reference this record", httpx.ErrConflict)
)
