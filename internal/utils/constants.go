package utils

import "time"

// Default timeout constants used across the codebase
const (
	// DefaultReadHeaderTimeout bounds reading request headers on the metrics endpoint
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultShutdownTimeout is how long the metrics server may take to drain
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultStoreTimeout bounds a single result store operation
	DefaultStoreTimeout = 30 * time.Second
)
