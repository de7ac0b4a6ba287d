package triage

import (
	"errors"
	"io"
	"log/slog"
)

// ErrInvalidConfig indicates the engine configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// CloseWithLog closes the resource and logs any error at warning level.
// It is meant for defer statements. A nil logger uses slog.Default().
//
//	defer triage.CloseWithLog(engine, logger, "triage engine")
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
