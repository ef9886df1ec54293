package job

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/jobvault/jobvault/jobvault/store"
)

// Identity field names within a job entry.
const (
	FieldDataHash   = "data_hash"
	FieldLabelsHash = "labels_hash"
	FieldCallable   = "callable"
	FieldParams     = "params"
	FieldLabel      = "label"
)

// hashMatrix digests the dimensions and raw row-major float bits of a
// matrix. The digest is computed from the literal contents at call time;
// callers must not mutate the matrix for the lifetime of the job that
// fingerprinted it.
func hashMatrix(m mat.Matrix) string {
	h := md5.New()
	r, c := m.Dims()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[0:8], uint64(r))
	binary.LittleEndian.PutUint64(dims[8:16], uint64(c))
	h.Write(dims[:])

	var buf [8]byte
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(m.At(i, j)))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// hashFloats digests the raw bits of a float slice.
func hashFloats(v []float64) string {
	h := md5.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(v)))
	h.Write(buf[:])
	for _, f := range v {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalParams normalizes a parameter map through a JSON round-trip so
// that structurally equal parameter sets always fingerprint identically
// (ints and floats collapse to float64, nested maps normalize the same
// way documents do after storage).
func canonicalParams(params map[string]any) (map[string]any, error) {
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("jobvault: parameters are not serializable: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("jobvault: parameters are not serializable: %w", err)
	}
	return out, nil
}

// identityDocument assembles the fingerprint fields of a job. The label
// key is present only when a label was provided, so an unlabeled job can
// never collide with a labeled one.
func identityDocument(dataHash, labelsHash, callable string, params map[string]any, label string, hasLabel bool) store.Document {
	doc := store.Document{
		FieldDataHash:   dataHash,
		FieldLabelsHash: labelsHash,
		FieldCallable:   callable,
		FieldParams:     params,
	}
	if hasLabel {
		doc[FieldLabel] = label
	}
	return doc
}

// fingerprintKey digests the canonical JSON encoding of the identity
// document. JSON object keys marshal in sorted order, so the digest is
// deterministic for structurally equal identities.
func fingerprintKey(identity store.Document) (string, error) {
	raw, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("jobvault: fingerprint is not serializable: %w", err)
	}
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}
