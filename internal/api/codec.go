// Package api defines the ExpenseMate RPC surface: wire messages, procedure
// names, handler registration and typed clients. Messages are plain structs
// carried over Connect with a JSON codec.
package api

import (
	"encoding/json"
	"fmt"
)

// Codec is the Connect codec for every ExpenseMate procedure.
type Codec struct{}

// Name is the codec name used in the Content-Type suffix.
func (Codec) Name() string { return "json" }

// Marshal encodes message as JSON.
func (Codec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

// Unmarshal decodes JSON into message. An empty body leaves message at its
// zero value.
func (Codec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}
