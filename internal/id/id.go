// Package id generates prefixed NanoID strings used as request ids.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// RequestPrefix tags ids attached to inbound HTTP requests.
const RequestPrefix = "req"

// Generate returns prefix-<21 char nanoid>, e.g. "req-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// NewRequestID returns a fresh request id.
func NewRequestID() (string, error) {
	return Generate(RequestPrefix)
}
