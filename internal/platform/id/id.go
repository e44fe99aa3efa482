// Package id generates opaque identifiers for connections.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PrefixConnection marks identifiers minted for WebSocket connections.
const PrefixConnection = "conn"

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New returns prefix, an underscore and a lowercase base32 UUIDv4. An empty
// prefix yields the bare encoded UUID.
func New(prefix string) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	encoded := strings.ToLower(encoding.EncodeToString(u[:]))
	if prefix == "" {
		return encoded, nil
	}
	return prefix + "_" + encoded, nil
}

// Valid reports whether value was produced by New with prefix.
func Valid(prefix, value string) bool {
	if prefix != "" {
		rest, ok := strings.CutPrefix(value, prefix+"_")
		if !ok {
			return false
		}
		value = rest
	}
	raw, err := encoding.DecodeString(strings.ToUpper(value))
	if err != nil || len(raw) != 16 {
		return false
	}
	parsed, err := uuid.FromBytes(raw)
	return err == nil && parsed.Version() == 4
}
