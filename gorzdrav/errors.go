package gorzdrav

import (
	"errors"
	"fmt"
)

// Kind classifies a business failure reported by the API envelope.
type Kind int

const (
	KindBusiness Kind = iota
	KindNoSpecialties
	KindNoDoctors
	KindNoTickets
	KindSystemFault
	KindSourceTimeout
)

// Business error codes returned in the envelope's errorCode field.
const (
	CodeNoSpecialties = 37
	CodeNoDoctors     = 38
	CodeNoTickets     = 39
	CodeSourceTimeout = 603
	CodeSystemFault   = 616
)

func (k Kind) String() string {
	switch k {
	case KindNoSpecialties:
		return "no_specialties"
	case KindNoDoctors:
		return "no_doctors"
	case KindNoTickets:
		return "no_tickets"
	case KindSystemFault:
		return "system_fault"
	case KindSourceTimeout:
		return "source_timeout"
	default:
		return "business"
	}
}

// Classify maps an envelope error code to its failure kind.
func Classify(code int) Kind {
	switch code {
	case CodeNoSpecialties:
		return KindNoSpecialties
	case CodeNoDoctors:
		return KindNoDoctors
	case CodeNoTickets:
		return KindNoTickets
	case CodeSystemFault:
		return KindSystemFault
	case CodeSourceTimeout:
		return KindSourceTimeout
	default:
		return KindBusiness
	}
}

// APIError is a failure reported by the upstream with success=false.
type APIError struct {
	Kind    Kind
	Code    int
	Message string
	URL     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gorzdrav: %s (code %d): %s [%s]", e.Kind, e.Code, e.Message, e.URL)
}

// Empty reports whether the failure only means "nothing offered right now".
func (e *APIError) Empty() bool {
	switch e.Kind {
	case KindNoSpecialties, KindNoDoctors, KindNoTickets:
		return true
	}
	return false
}

// Upstream reports whether the failure is a fault of the source system that
// should be retried later.
func (e *APIError) Upstream() bool {
	return e.Kind == KindSystemFault || e.Kind == KindSourceTimeout
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == kind
}
