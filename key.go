package grouping

import (
	"encoding/json"
	"fmt"
)

// CanonicalKey produces the canonical encoding of a value, which is used for
// group key equality and hashing. Values are encoded as JSON, with map keys in
// sorted order, so equal values always produce equal encodings. Integer and
// floating point numbers with the same value share an encoding, as do byte slices
// and the strings they contain.
func CanonicalKey(v interface{}) (string, error) {
	switch tv := v.(type) {
	case nil:
		return "null", nil
	case string:
		buf, err := json.Marshal(tv)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	case []byte:
		return CanonicalKey(string(tv))
	case *DistinctSet:
		return CanonicalKey(tv.Values())
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("value %#v cannot be used as a key: %w", v, err)
	}
	return string(buf), nil
}
