// Package cart defines the cart data model and the JSON encoding used for
// the values stored in the cart store.
package cart

import (
	"encoding/json"
	"strconv"
)

// Item is a single cart entry. ItemID is the effective identity within a
// cart: add merges on it and modify/delete act on the first record carrying
// it. Quantity and Price are number-or-string as received from the client
// and are stored back verbatim; after decoding they are json.Number for
// numeric JSON values and string for quoted ones.
type Item struct {
	ItemID      string      `json:"itemid"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Quantity    interface{} `json:"quantity"`
	Price       interface{} `json:"price"`
}

// Float coerces a quantity or price value to a float64 for total
// calculations. Values that do not parse as a number contribute 0; this is
// deliberately lenient and never fails.
func Float(v interface{}) float64 {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Int coerces a quantity to an integer for the add-item merge path. Unlike
// Float this is strict: a numeric JSON value is truncated toward zero, but a
// quoted value must be a plain integer literal. Anything else is an
// InvalidQuantityError.
func Int(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := n.Float64(); err == nil {
			return int(f), nil
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, nil
		}
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, &InvalidQuantityError{Value: v}
}

// IsZero reports whether a modify-item quantity asks for removal. Only a
// numeric zero counts; the quoted string "0" is an ordinary quantity update
// and is stored verbatim.
func IsZero(v interface{}) bool {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return err == nil && f == 0
	case float64:
		return n == 0
	case int:
		return n == 0
	case int64:
		return n == 0
	}
	return false
}
