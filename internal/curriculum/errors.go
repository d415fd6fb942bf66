package curriculum

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrOutOfRange matches every *OutOfRangeError under errors.Is.
var ErrOutOfRange = errors.New("mark out of range")

// OutOfRangeError reports a sub-score above its declared maximum.
type OutOfRangeError struct {
	Field string
	Max   float64
	Value float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s cannot exceed %s", e.Field, strconv.FormatFloat(e.Max, 'f', -1, 64))
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
