package deltatree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type jsonWriter struct {
	result []byte
}

func (w *jsonWriter) WriteUint8(v uint8) error {
	return w.WriteValue(v)
}

func (w *jsonWriter) WriteUint(v int) error {
	return w.WriteValue(v)
}

func (w *jsonWriter) WriteString(v string) error {
	return w.WriteValue(v)
}

func (w *jsonWriter) WriteValue(v interface{}) error {
	w.next()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.result = append(w.result, b...)
	return nil
}

func (w *jsonWriter) next() {
	if len(w.result) == 0 {
		w.result = append(w.result, '[')
	} else {
		w.result = append(w.result, ',')
	}
}

func (w *jsonWriter) finalize() []byte {
	if len(w.result) == 0 {
		return []byte{'[', ']'}
	}

	w.result = append(w.result, ']')
	return w.result
}

type jsonReader struct {
	dec *json.Decoder
}

func (r *jsonReader) tryEOF() error {
	if !r.dec.More() {
		t, err := r.dec.Token()
		if err != nil {
			return err
		}
		if t != json.Delim(']') {
			return fmt.Errorf("expected ] at end")
		}

		return io.EOF
	}

	return nil
}

func (r *jsonReader) ReadUint8() (uint8, error) {
	n, err := r.ReadUint()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("expected uint8, got %d", n)
	}
	return uint8(n), nil
}

func (r *jsonReader) ReadUint() (int, error) {
	val, err := r.ReadValue()
	if err != nil {
		return 0, err
	}
	f, ok := val.(float64)
	if !ok || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("expected unsigned integer, got %v", val)
	}
	return int(f), nil
}

func (r *jsonReader) ReadString() (string, error) {
	val, err := r.ReadValue()
	if err != nil {
		return "", err
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %v", val)
	}
	return s, nil
}

func (r *jsonReader) ReadValue() (interface{}, error) {
	err := r.tryEOF()
	if err != nil {
		return nil, err
	}
	var val interface{}
	err = r.dec.Decode(&val)
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *jsonReader) expectArray() error {
	t, err := r.dec.Token()
	if err != nil {
		return err
	}

	if t != json.Delim('[') {
		return fmt.Errorf("expected array")
	}

	return nil
}

// MarshalJSON encodes the patch as a flat JSON array of op codes and payloads.
func (patch Patch) MarshalJSON() ([]byte, error) {
	w := jsonWriter{}
	err := patch.WriteTo(&w)
	if err != nil {
		return nil, err
	}
	return w.finalize(), nil
}

// UnmarshalJSON decodes a patch encoded by MarshalJSON.
func (patch *Patch) UnmarshalJSON(data []byte) error {
	r := jsonReader{
		dec: json.NewDecoder(bytes.NewReader(data)),
	}

	err := r.expectArray()
	if err != nil {
		return err
	}

	return patch.ReadFrom(&r)
}
