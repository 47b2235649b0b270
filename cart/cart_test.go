package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatLenient(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
	}{
		{"number", json.Number("2"), 2},
		{"decimal number", json.Number("4.5"), 4.5},
		{"numeric string", "400", 400},
		{"decimal string", "4.5", 4.5},
		{"garbage string", "two", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Float(tt.in))
		})
	}
}

func TestIntStrict(t *testing.T) {
	n, err := Int(json.Number("3"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Numeric JSON values truncate toward zero.
	n, err = Int(json.Number("2.9"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Int("4")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Quoted values must be plain integer literals.
	for _, in := range []interface{}{"2.5", "two", nil, true} {
		_, err := Int(in)
		var badQty *InvalidQuantityError
		assert.ErrorAs(t, err, &badQty, "input %v", in)
	}
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(json.Number("0")))
	assert.True(t, IsZero(json.Number("0.0")))
	assert.False(t, IsZero(json.Number("1")))
	// The quoted string "0" is an ordinary quantity value, not a removal.
	assert.False(t, IsZero("0"))
	assert.False(t, IsZero(nil))
}
