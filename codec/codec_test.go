package codec

import (
	"bytes"
	"math"
	"testing"

	"github.com/go-sif/grouping"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"pgregory.net/rapid"
)

func roundTrip(t require.TestingT, v interface{}) interface{} {
	ev, err := EncodeValue(v)
	require.Nil(t, err)
	buf, err := proto.Marshal(ev)
	require.Nil(t, err)
	decoded := new(structpb.Value)
	require.Nil(t, proto.Unmarshal(buf, decoded))
	res, err := DecodeValue(decoded)
	require.Nil(t, err)
	return res
}

func TestIntegersSurviveExactly(t *testing.T) {
	require.Equal(t, int64(math.MaxInt64), roundTrip(t, int64(math.MaxInt64)))
	require.Equal(t, int64(7), roundTrip(t, 7))
	require.Equal(t, 2.5, roundTrip(t, 2.5))
}

func TestStructuredStates(t *testing.T) {
	ms := grouping.MeanState{Sum: 10.5, Count: 3}
	require.Equal(t, ms, roundTrip(t, ms))

	set := grouping.NewDistinctSet()
	_, _ = set.Add("a")
	_, _ = set.Add(int64(2))
	res := roundTrip(t, set)
	decoded, ok := res.(*grouping.DistinctSet)
	require.True(t, ok)
	require.Equal(t, set.Values(), decoded.Values())

	list := []interface{}{"a", int64(1), nil, true, []interface{}{}}
	require.Equal(t, list, roundTrip(t, list))

	m := map[string]interface{}{"$int": "not a tag", "n": int64(4)}
	require.Equal(t, m, roundTrip(t, m))
}

func TestLimitedListSurvives(t *testing.T) {
	l := grouping.NewLimitedList(4)
	l.Add("a", 3)
	l.Add(int64(9), 2)
	res, ok := roundTrip(t, l).(*grouping.LimitedList)
	require.True(t, ok)
	require.Equal(t, l, res)
}

func TestByteSlicesKeepTheirKey(t *testing.T) {
	key := []byte("sensor-1")
	decoded := roundTrip(t, key)
	expected, err := grouping.CanonicalKey(key)
	require.Nil(t, err)
	actual, err := grouping.CanonicalKey(decoded)
	require.Nil(t, err)
	require.Equal(t, expected, actual)
}

func TestUnencodable(t *testing.T) {
	_, err := EncodeValue(struct{}{})
	require.NotNil(t, err)
}

func TestValueRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.OneOf(
			rapid.Int64().AsAny(),
			rapid.String().AsAny(),
			rapid.Bool().AsAny(),
			rapid.SliceOf(rapid.Int64()).AsAny(),
		).Draw(t, "v")
		if l, ok := v.([]int64); ok {
			generic := make([]interface{}, len(l))
			for i, n := range l {
				generic[i] = n
			}
			v = generic
		}
		require.Equal(t, v, roundTrip(t, v))
	})
}

func TestCompressors(t *testing.T) {
	payload := bytes.Repeat([]byte("group map payload "), 100)
	for _, c := range []Compression{NoCompression, LZ4Compression, ZstdCompression} {
		compressor, err := NewCompressor(c)
		require.Nil(t, err)
		encoded, err := Encode(compressor, payload)
		require.Nil(t, err)
		require.Equal(t, byte(c), encoded[0])
		decoded, err := Decode(encoded)
		require.Nil(t, err)
		require.Equal(t, payload, decoded)
		if zc, ok := compressor.(*ZstdCompressor); ok {
			zc.Close()
		}
	}
	_, err := Decode([]byte{42, 1, 2})
	require.NotNil(t, err)
	_, err = Decode(nil)
	require.NotNil(t, err)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("zstd")
	require.Nil(t, err)
	require.Equal(t, ZstdCompression, c)
	_, err = ParseCompression("gzip")
	require.NotNil(t, err)
}
