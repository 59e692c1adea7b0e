package backend

import (
	"encoding/json"
	"fmt"
)

// Codec maps keys and values to their stored byte forms. Persistent drivers
// are configured with one; the memory driver keeps rows typed and needs none.
//
// DecodeKey must invert EncodeKey so drivers can reconstruct keys during
// scans. DecodeValue must not retain b: drivers may hand it a buffer that is
// reused after the call returns.
type Codec[K comparable, V any] interface {
	EncodeKey(key K) ([]byte, error)
	DecodeKey(b []byte) (K, error)
	EncodeValue(value V) ([]byte, error)
	DecodeValue(b []byte) (V, error)
}

// StringBytes returns a Codec for string keys and raw []byte values. Decoded
// values are copied out of driver-owned buffers.
func StringBytes() Codec[string, []byte] { return stringBytes{} }

type stringBytes struct{}

func (stringBytes) EncodeKey(key string) ([]byte, error) { return []byte(key), nil }
func (stringBytes) DecodeKey(b []byte) (string, error)   { return string(b), nil }
func (stringBytes) EncodeValue(v []byte) ([]byte, error) { return v, nil }
func (stringBytes) DecodeValue(b []byte) ([]byte, error) {
	return append([]byte(nil), b...), nil
}

// JSONValue returns a Codec for string keys and values of type V stored as
// JSON documents.
func JSONValue[V any]() Codec[string, V] { return jsonValue[V]{} }

type jsonValue[V any] struct{}

func (jsonValue[V]) EncodeKey(key string) ([]byte, error) { return []byte(key), nil }
func (jsonValue[V]) DecodeKey(b []byte) (string, error)   { return string(b), nil }
func (jsonValue[V]) EncodeValue(v V) ([]byte, error)      { return json.Marshal(v) }
func (jsonValue[V]) DecodeValue(b []byte) (V, error) {
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}
