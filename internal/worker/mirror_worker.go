package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AppleZ1995/CalendarAssistant/internal/amqp"
	"github.com/AppleZ1995/CalendarAssistant/internal/core"
	"github.com/AppleZ1995/CalendarAssistant/internal/sheets"
)

type (
	MomentReader interface {
		Get(ctx context.Context, id int64) (core.Moment, bool, error)
	}

	MoneyReader interface {
		Get(ctx context.Context, id int64) (core.MoneyRecord, bool, error)
	}
)

// MirrorWorker copies committed changes into a ChangeRecorder. Messages
// carry only ids, so the current row is read back from the store.
type MirrorWorker struct {
	moments  MomentReader
	money    MoneyReader
	recorder sheets.ChangeRecorder
}

func NewMirrorWorker(moments MomentReader, money MoneyReader, recorder sheets.ChangeRecorder) *MirrorWorker {
	return &MirrorWorker{
		moments:  moments,
		money:    money,
		recorder: recorder,
	}
}

// HandleChange processes one change message. A returned error asks for
// redelivery.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"entity", msg.Entity,
		"op", msg.Op,
		"id", msg.ID)

	entry, ok, err := w.entryFor(ctx, msg)
	if err != nil {
		return err
	}
	if !ok {
		slog.WarnContext(ctx, "Row no longer exists, skipping change",
			"entity", msg.Entity,
			"op", msg.Op,
			"id", msg.ID)
		return nil
	}

	if err := w.recorder.Record(ctx, entry); err != nil {
		return fmt.Errorf("record %s %s %d: %w", msg.Entity, msg.Op, msg.ID, err)
	}
	return nil
}

func (w *MirrorWorker) entryFor(ctx context.Context, msg *amqp.ChangeMessage) (core.ChangeEntry, bool, error) {
	if msg.Op == core.OpDelete {
		return core.Tombstone(msg.Entity, msg.Timestamp, msg.ID), true, nil
	}

	switch msg.Entity {
	case core.EntityMoment:
		m, found, err := w.moments.Get(ctx, msg.ID)
		if err != nil {
			return core.ChangeEntry{}, false, fmt.Errorf("get moment %d: %w", msg.ID, err)
		}
		return core.MomentChange(msg.Op, msg.Timestamp, m), found, nil
	case core.EntityMoney:
		rec, found, err := w.money.Get(ctx, msg.ID)
		if err != nil {
			return core.ChangeEntry{}, false, fmt.Errorf("get money record %d: %w", msg.ID, err)
		}
		return core.MoneyChange(msg.Op, msg.Timestamp, rec), found, nil
	default:
		return core.ChangeEntry{}, false, fmt.Errorf("unknown entity %q", msg.Entity)
	}
}
