package cart

import "fmt"

// NoCartError is returned by operations that require an existing cart when
// no value is stored for the user.
type NoCartError struct {
	UserID string
}

func (e *NoCartError) Error() string {
	return "no cart found for " + e.UserID
}

// DecodeError wraps a failure to decode stored cart bytes. Under the
// service's own write discipline this should not occur, but stored values
// are still treated as untrusted on read.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return "malformed cart data: " + e.Cause.Error()
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// InvalidQuantityError reports a quantity that failed the strict integer
// coercion used when merging an added item into an existing record.
type InvalidQuantityError struct {
	Value interface{}
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %v is not an integer", e.Value)
}
