package money

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCount is returned for negative or non-integral consignment counts.
var ErrInvalidCount = errors.New("invalid consignment count")

// ConsignmentCount is a non-negative number of deliverable units.
type ConsignmentCount int

// NewConsignmentCount validates a count.
func NewConsignmentCount(n int) (ConsignmentCount, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	return ConsignmentCount(n), nil
}

// CountFromFloat accepts only non-negative integral values.
func CountFromFloat(f float64) (ConsignmentCount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCount, f)
	}
	return ConsignmentCount(int(f)), nil
}

func (c ConsignmentCount) Int() int { return int(c) }
