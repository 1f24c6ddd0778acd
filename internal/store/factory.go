// SPDX-License-Identifier: MIT

package store

import (
	"fmt"

	"github.com/meetscribe/meetscribe/internal/meeting"
)

// Open creates a meeting store based on the backend configuration.
func Open(backend, path string) (meeting.Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a store path")
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
