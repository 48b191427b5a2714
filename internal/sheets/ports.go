package sheets

import (
	"context"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
)

// Ports for outbound adapters.
type (
	// ChangeRecorder keeps an append-only log of committed changes.
	ChangeRecorder interface {
		Record(ctx context.Context, e core.ChangeEntry) error
	}
)
