// Package numeric implements the arithmetic shared by numeric barrier steps and combiners.
// Integers are kept as int64 for as long as both operands are integers, and promoted to float64
// otherwise.
package numeric

import (
	"fmt"
	"math"
)

// Normalize converts any Go numeric value to an int64 or a float64. Unsigned integers too large
// for an int64 become float64s.
func Normalize(v interface{}) (interface{}, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return fromUnsigned(uint64(n)), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return fromUnsigned(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return nil, false
}

func fromUnsigned(n uint64) interface{} {
	if n > math.MaxInt64 {
		return float64(n)
	}
	return int64(n)
}

func normalizePair(a, b interface{}) (interface{}, interface{}, error) {
	na, ok := Normalize(a)
	if !ok {
		return nil, nil, fmt.Errorf("value %#v is not a number", a)
	}
	nb, ok := Normalize(b)
	if !ok {
		return nil, nil, fmt.Errorf("value %#v is not a number", b)
	}
	return na, nb, nil
}

// ToFloat converts a numeric value to a float64
func ToFloat(v interface{}) (float64, bool) {
	n, ok := Normalize(v)
	if !ok {
		return 0, false
	}
	if i, isInt := n.(int64); isInt {
		return float64(i), true
	}
	return n.(float64), true
}

// Add returns a + b
func Add(a, b interface{}) (interface{}, error) {
	na, nb, err := normalizePair(a, b)
	if err != nil {
		return nil, err
	}
	ia, aInt := na.(int64)
	ib, bInt := nb.(int64)
	if aInt && bInt {
		return ia + ib, nil
	}
	fa, _ := ToFloat(na)
	fb, _ := ToFloat(nb)
	return fa + fb, nil
}

// Mul returns v * n, used to apply a Traverser's Bulk to its value
func Mul(v interface{}, n int64) (interface{}, error) {
	nv, ok := Normalize(v)
	if !ok {
		return nil, fmt.Errorf("value %#v is not a number", v)
	}
	if i, isInt := nv.(int64); isInt {
		return i * n, nil
	}
	return nv.(float64) * float64(n), nil
}

// Compare returns -1, 0 or 1 as a is less than, equal to or greater than b
func Compare(a, b interface{}) (int, error) {
	na, nb, err := normalizePair(a, b)
	if err != nil {
		return 0, err
	}
	ia, aInt := na.(int64)
	ib, bInt := nb.(int64)
	if aInt && bInt {
		switch {
		case ia < ib:
			return -1, nil
		case ia > ib:
			return 1, nil
		}
		return 0, nil
	}
	fa, _ := ToFloat(na)
	fb, _ := ToFloat(nb)
	switch {
	case fa < fb:
		return -1, nil
	case fa > fb:
		return 1, nil
	}
	return 0, nil
}

// Min returns the lesser of a and b
func Min(a, b interface{}) (interface{}, error) {
	c, err := Compare(a, b)
	if err != nil {
		return nil, err
	}
	if c <= 0 {
		return mustNormalize(a), nil
	}
	return mustNormalize(b), nil
}

// Max returns the greater of a and b
func Max(a, b interface{}) (interface{}, error) {
	c, err := Compare(a, b)
	if err != nil {
		return nil, err
	}
	if c >= 0 {
		return mustNormalize(a), nil
	}
	return mustNormalize(b), nil
}

// mustNormalize is Normalize for values already known to be numeric
func mustNormalize(v interface{}) interface{} {
	n, _ := Normalize(v)
	return n
}
