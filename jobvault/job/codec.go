package job

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// encodeResult serializes an arbitrary result value (fitted learner,
// scalar score, prediction vector) for blob storage. Concrete learner
// types must be gob-registered, which built-in learners do in their init.
func encodeResult(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, fmt.Errorf("jobvault: result is not serializable: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeResult reverses encodeResult.
func decodeResult(payload []byte) (any, error) {
	var v any
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&v); err != nil {
		return nil, fmt.Errorf("jobvault: stored result is not deserializable: %w", err)
	}
	return v, nil
}
