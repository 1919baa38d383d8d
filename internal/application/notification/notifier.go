// Package notification turns lifecycle events into notification notes so the
// next role in the chain sees actionable work on their dashboard.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/krishsoni15/procureflow/internal/application/dispatcher"
	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/event"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Notifier writes notification notes in reaction to lifecycle events.
type Notifier struct {
	noteRepo port.NoteRepository
	logger   Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(noteRepo port.NoteRepository, logger Logger) *Notifier {
	return &Notifier{noteRepo: noteRepo, logger: logger}
}

// Register subscribes the notifier's handlers on the dispatcher.
func (n *Notifier) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeRequestSent, "notify-manager", n.onRequestSent)
	d.Subscribe(event.TypeRequestRejected, "notify-engineer-rejected", n.onRequestRejected)
	d.Subscribe(event.TypePOIssued, "notify-po-issued", n.onPOIssued)
	d.Subscribe(event.TypeItemDelivered, "notify-item-delivered", n.onItemDelivered)
}

func (n *Notifier) onRequestSent(ctx context.Context, evt *event.Event) error {
	return n.write(ctx, evt, workflow.StatePending,
		fmt.Sprintf("request %s awaiting approval", evt.RequestNumber))
}

func (n *Notifier) onRequestRejected(ctx context.Context, evt *event.Event) error {
	return n.write(ctx, evt, workflow.StateRejected,
		fmt.Sprintf("request %s was rejected", evt.RequestNumber))
}

func (n *Notifier) onPOIssued(ctx context.Context, evt *event.Event) error {
	return n.write(ctx, evt, workflow.StatePendingPO,
		fmt.Sprintf("purchase order %s issued for request %s", evt.GetPayloadString("po_number"), evt.RequestNumber))
}

func (n *Notifier) onItemDelivered(ctx context.Context, evt *event.Event) error {
	return n.write(ctx, evt, workflow.StateDelivered,
		fmt.Sprintf("item %d of request %s fully delivered", evt.ItemID, evt.RequestNumber))
}

func (n *Notifier) write(ctx context.Context, evt *event.Event, status workflow.State, content string) error {
	note := &entity.Note{
		RequestNumber: evt.RequestNumber,
		UserID:        evt.ActorID,
		Role:          workflow.Role(evt.GetPayloadString("role")),
		Status:        status,
		Type:          entity.NoteTypeNotification,
		Content:       content,
		CreatedAt:     time.Now(),
	}
	if err := n.noteRepo.Create(ctx, note); err != nil {
		n.logger.Error("Failed to write notification note",
			"event_type", evt.Type, "request_number", evt.RequestNumber, "error", err)
		return err
	}
	return nil
}
