package cache

import (
	"fmt"
	"strings"
)

// KeyPrefix namespaces every window entry in Redis.
const KeyPrefix = "fut:window"

// WindowKey identifies one cached pagination window.
type WindowKey struct {
	// Endpoint is the upstream path (e.g., "/teams").
	Endpoint string

	Limit  int
	Offset int
}

// String generates a deterministic Redis key.
// Format: fut:window:teams:limit=50:offset=100
func (k WindowKey) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, strings.ReplaceAll(endpoint, "/", "."))
	}

	parts = append(parts,
		fmt.Sprintf("limit=%d", k.Limit),
		fmt.Sprintf("offset=%d", k.Offset),
	)

	return strings.Join(parts, ":")
}
