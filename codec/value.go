// Package codec converts group keys and states to and from a transportable form, and compresses
// the result. Values are encoded as protobuf structpb.Values. JSON-like values map onto structpb
// directly; anything structpb cannot represent exactly (integers, mean states, distinct sets) is
// wrapped in a single-field struct naming its type. Byte slices are encoded as strings, which
// share their group key encoding.
package codec

import (
	"fmt"
	"strconv"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/internal/numeric"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	intTag   = "$int"
	meanTag  = "$mean"
	setTag   = "$set"
	mapTag   = "$map"
	limitTag = "$limit"
)

func tagged(tag string, v *structpb.Value) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{tag: v}})
}

// EncodeValue converts a key or state into a structpb.Value
func EncodeValue(v interface{}) (*structpb.Value, error) {
	switch tv := v.(type) {
	case nil:
		return structpb.NewNullValue(), nil
	case bool:
		return structpb.NewBoolValue(tv), nil
	case string:
		return structpb.NewStringValue(tv), nil
	case []byte:
		return structpb.NewStringValue(string(tv)), nil
	case grouping.MeanState:
		return tagged(meanTag, structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
			structpb.NewNumberValue(tv.Sum),
			structpb.NewStringValue(strconv.FormatInt(tv.Count, 10)),
		}})), nil
	case *grouping.DistinctSet:
		list, err := encodeList(tv.Values())
		if err != nil {
			return nil, err
		}
		return tagged(setTag, list), nil
	case *grouping.LimitedList:
		var values []interface{}
		var bulks []*structpb.Value
		tv.Each(func(v interface{}, bulk int64) {
			values = append(values, v)
			bulks = append(bulks, structpb.NewStringValue(strconv.FormatInt(bulk, 10)))
		})
		list, err := encodeList(values)
		if err != nil {
			return nil, err
		}
		return tagged(limitTag, structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
			structpb.NewStringValue(strconv.FormatInt(tv.Limit(), 10)),
			list,
			structpb.NewListValue(&structpb.ListValue{Values: bulks}),
		}})), nil
	case []interface{}:
		return encodeList(tv)
	case map[string]interface{}:
		fields := make(map[string]*structpb.Value, len(tv))
		for k, fv := range tv {
			ev, err := EncodeValue(fv)
			if err != nil {
				return nil, err
			}
			fields[k] = ev
		}
		return tagged(mapTag, structpb.NewStructValue(&structpb.Struct{Fields: fields})), nil
	}
	n, ok := numeric.Normalize(v)
	if !ok {
		return nil, fmt.Errorf("cannot encode value %#v of type %T", v, v)
	}
	if i, isInt := n.(int64); isInt {
		return tagged(intTag, structpb.NewStringValue(strconv.FormatInt(i, 10))), nil
	}
	return structpb.NewNumberValue(n.(float64)), nil
}

func encodeList(values []interface{}) (*structpb.Value, error) {
	list := make([]*structpb.Value, len(values))
	for i, lv := range values {
		ev, err := EncodeValue(lv)
		if err != nil {
			return nil, err
		}
		list[i] = ev
	}
	return structpb.NewListValue(&structpb.ListValue{Values: list}), nil
}

// DecodeValue is the inverse of EncodeValue
func DecodeValue(v *structpb.Value) (interface{}, error) {
	switch kind := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_BoolValue:
		return kind.BoolValue, nil
	case *structpb.Value_StringValue:
		return kind.StringValue, nil
	case *structpb.Value_NumberValue:
		return kind.NumberValue, nil
	case *structpb.Value_ListValue:
		return decodeList(kind.ListValue)
	case *structpb.Value_StructValue:
		return decodeTagged(kind.StructValue)
	}
	return nil, fmt.Errorf("cannot decode value %v", v)
}

func decodeList(l *structpb.ListValue) ([]interface{}, error) {
	res := make([]interface{}, len(l.GetValues()))
	for i, lv := range l.GetValues() {
		dv, err := DecodeValue(lv)
		if err != nil {
			return nil, err
		}
		res[i] = dv
	}
	return res, nil
}

func decodeTagged(s *structpb.Struct) (interface{}, error) {
	if len(s.GetFields()) != 1 {
		return nil, fmt.Errorf("encoded struct must have exactly one tag, found %d fields", len(s.GetFields()))
	}
	for tag, v := range s.GetFields() {
		switch tag {
		case intTag:
			return strconv.ParseInt(v.GetStringValue(), 10, 64)
		case meanTag:
			parts := v.GetListValue().GetValues()
			if len(parts) != 2 {
				return nil, fmt.Errorf("encoded mean state must have 2 parts, found %d", len(parts))
			}
			count, err := strconv.ParseInt(parts[1].GetStringValue(), 10, 64)
			if err != nil {
				return nil, err
			}
			return grouping.MeanState{Sum: parts[0].GetNumberValue(), Count: count}, nil
		case setTag:
			values, err := decodeList(v.GetListValue())
			if err != nil {
				return nil, err
			}
			set := grouping.NewDistinctSet()
			for _, sv := range values {
				if _, err := set.Add(sv); err != nil {
					return nil, err
				}
			}
			return set, nil
		case limitTag:
			return decodeLimitedList(v.GetListValue().GetValues())
		case mapTag:
			res := make(map[string]interface{}, len(v.GetStructValue().GetFields()))
			for k, fv := range v.GetStructValue().GetFields() {
				dv, err := DecodeValue(fv)
				if err != nil {
					return nil, err
				}
				res[k] = dv
			}
			return res, nil
		}
		return nil, fmt.Errorf("unknown value tag %q", tag)
	}
	return nil, nil
}

func decodeLimitedList(parts []*structpb.Value) (*grouping.LimitedList, error) {
	if len(parts) != 3 {
		return nil, fmt.Errorf("encoded limited list must have 3 parts, found %d", len(parts))
	}
	limit, err := strconv.ParseInt(parts[0].GetStringValue(), 10, 64)
	if err != nil {
		return nil, err
	}
	values, err := decodeList(parts[1].GetListValue())
	if err != nil {
		return nil, err
	}
	bulks := parts[2].GetListValue().GetValues()
	if len(bulks) != len(values) {
		return nil, fmt.Errorf("encoded limited list has %d values but %d multiplicities", len(values), len(bulks))
	}
	l := grouping.NewLimitedList(limit)
	for i, v := range values {
		bulk, err := strconv.ParseInt(bulks[i].GetStringValue(), 10, 64)
		if err != nil {
			return nil, err
		}
		l.Add(v, bulk)
	}
	return l, nil
}
