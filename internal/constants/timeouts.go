package constants

import "time"

// Marketplace HTTP client defaults. Overridable per-field via config.
const (
	DefaultDialTimeout           = 10 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultResponseHeaderTimeout = 30 * time.Second
	DefaultExpectContinueTimeout = 1 * time.Second
	DefaultRequestTimeout        = 60 * time.Second
)

const (
	ServerShutdownTimeout = 10 * time.Second
	ServerGracefulWait    = 500 * time.Millisecond
)

const (
	// DefaultStorageTimeout bounds single catalog/session store operations.
	DefaultStorageTimeout = 5 * time.Second
)
