package orderconfig

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

const maxQuantity = 1_000_000

// QuantityInput is a quantity cell as submitted by a client. It accepts JSON
// numbers and numeric strings; anything unparsable or negative reads as 0.
type QuantityInput struct {
	value int
}

// Quantity wraps an already-parsed count.
func Quantity(n int) QuantityInput {
	return QuantityInput{value: clampQuantity(n)}
}

// Int returns the coerced, non-negative count.
func (q QuantityInput) Int() int {
	return q.value
}

func (q QuantityInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.value)
}

func (q *QuantityInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	q.value = 0
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		q.value = ParseQuantity(raw)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	if math.IsNaN(f) || f <= 0 {
		return nil
	}
	q.value = clampQuantity(int(math.Min(math.Trunc(f), maxQuantity)))
	return nil
}

// ParseQuantity reads the leading integer of raw ("12", " 7 shirts", "3.9")
// and coerces unparsable or negative input to 0.
func ParseQuantity(raw string) int {
	s := strings.TrimSpace(raw)
	negative := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		negative = s[0] == '-'
		s = s[1:]
	}
	n := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits++
		if n < maxQuantity {
			n = n*10 + int(r-'0')
		}
	}
	if digits == 0 || negative {
		return 0
	}
	return clampQuantity(n)
}

func clampQuantity(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxQuantity {
		return maxQuantity
	}
	return n
}
