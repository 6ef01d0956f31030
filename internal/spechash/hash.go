// Package spechash computes a key-order-insensitive content hash of a chart
// spec, used to correlate runs and to bind view tokens to a request.
package spechash

import (
	"encoding/json"
	"fmt"

	"github.com/minio/highwayhash"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/nixlim/presetdeck/internal/contract"
)

// hashKey is fixed so hashes are stable across processes and releases.
var hashKey = []byte("presetdeck/spec-hash/v1.........")

var canonicalOptions = ojg.Options{Sort: true}

// Hash returns the hex content hash of spec.
func Hash(spec contract.ChartSpec) (string, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("encoding spec: %w", err)
	}
	return HashJSON(data)
}

// MustHash is Hash for specs built in code, where encoding cannot fail.
func MustHash(spec contract.ChartSpec) string {
	h, err := Hash(spec)
	if err != nil {
		panic(err)
	}
	return h
}

// HashJSON hashes an arbitrary JSON document after rewriting it with object
// keys sorted at every depth.
func HashJSON(data []byte) (string, error) {
	canonical, err := Canonical(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", highwayhash.Sum64(canonical, hashKey)), nil
}

// Canonical returns data re-serialized with sorted keys and no whitespace.
func Canonical(data []byte) ([]byte, error) {
	tree, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing spec JSON: %w", err)
	}
	return []byte(oj.JSON(tree, &canonicalOptions)), nil
}
