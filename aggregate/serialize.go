package aggregate

import (
	"fmt"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/codec"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToBytes serializes the keys and states of this GroupMap, compressed with the Group's
// Compression. Value pipeline instances are not serialized: they are rebuilt from state when the
// decoded map is next incorporated into.
func (m *GroupMap) ToBytes() ([]byte, error) {
	return m.Encode(m.group.compression)
}

// Encode serializes this GroupMap like ToBytes, using a specific Compression
func (m *GroupMap) Encode(c codec.Compression) ([]byte, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	entries := make([]*structpb.Value, 0, m.entries.Len())
	var encodeErr error
	m.entries.Ascend(func(e *entry) bool {
		m.snapshot(e)
		key, err := codec.EncodeValue(e.key)
		if err != nil {
			encodeErr = err
			return false
		}
		state, err := codec.EncodeValue(e.state)
		if err != nil {
			encodeErr = err
			return false
		}
		entries = append(entries, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"key":   key,
			"state": state,
		}}))
		return true
	})
	if encodeErr != nil {
		return nil, encodeErr
	}
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":       structpb.NewStringValue(m.id),
		"kind":     structpb.NewStringValue(m.classification.Kind.String()),
		"combiner": structpb.NewStringValue(string(m.classification.Combiner)),
		"entries":  structpb.NewListValue(&structpb.ListValue{Values: entries}),
	}}
	buf, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	compressor, err := codec.NewCompressor(c)
	if err != nil {
		return nil, err
	}
	if zc, ok := compressor.(*codec.ZstdCompressor); ok {
		defer zc.Close()
	}
	return codec.Encode(compressor, buf)
}

// MapFromBytes decodes a GroupMap serialized by ToBytes. The map must have been produced by a
// Group whose value pipeline combines states the same way as this one.
func (g *Group) MapFromBytes(data []byte) (*GroupMap, error) {
	buf, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	msg := new(structpb.Struct)
	if err := proto.Unmarshal(buf, msg); err != nil {
		return nil, fmt.Errorf("unable to decode group map: %w", err)
	}
	fields := msg.GetFields()
	kind, err := ParseKind(fields["kind"].GetStringValue())
	if err != nil {
		return nil, err
	}
	combiner, err := grouping.ParseCombiner(fields["combiner"].GetStringValue())
	if err != nil {
		return nil, err
	}
	m := g.newMapWithID(fields["id"].GetStringValue())
	if err := m.compatible(Classification{Kind: kind, Combiner: combiner}); err != nil {
		return nil, err
	}
	for _, ev := range fields["entries"].GetListValue().GetValues() {
		ef := ev.GetStructValue().GetFields()
		key, err := codec.DecodeValue(ef["key"])
		if err != nil {
			return nil, err
		}
		state, err := codec.DecodeValue(ef["state"])
		if err != nil {
			return nil, err
		}
		ckey, err := grouping.CanonicalKey(key)
		if err != nil {
			return nil, err
		}
		m.entries.ReplaceOrInsert(&entry{ckey: ckey, key: key, state: state})
	}
	m.log.V(4).Info("decoded group map", "keys", m.entries.Len())
	return m, nil
}
