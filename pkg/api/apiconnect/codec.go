package apiconnect

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the Connect codec name; requests use Content-Type application/json.
const CodecName = "json"

// JSONCodec is a Connect codec for the plain Go messages in package api.
// Protobuf messages, such as the well-known types, are encoded with protojson.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return CodecName }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	if m, ok := msg.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if m, ok := msg.(proto.Message); ok {
		return protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(data, m)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
