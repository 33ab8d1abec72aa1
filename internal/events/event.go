// Package events carries change notifications from the POS to connected
// clients and, optionally, to Google Cloud Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/warung-pos/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	TypeTransactionRecorded = "transaction.recorded"
	TypeProductChanged      = "product.changed"
	TypeProductDeleted      = "product.deleted"
	TypeSettingsChanged     = "settings.changed"
)

// Event is one notification on the feed.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	SubjectID  string          `json:"subject_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Publisher delivers an event to one destination.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Subscriber streams events until the returned cancel func is called or ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}

// MultiPublisher publishes to every destination and combines the failures.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, evt Event) error {
	var err error
	for _, p := range m {
		if p == nil {
			continue
		}
		err = multierr.Append(err, p.Publish(ctx, evt))
	}
	return err
}

// Feed builds events and publishes them best-effort: failures are logged and
// never returned to the caller.
type Feed struct {
	pub  Publisher
	logg *logger.Logger
	now  func() time.Time
}

// NewFeed wires a feed. A nil publisher drops every event.
func NewFeed(pub Publisher, logg *logger.Logger) *Feed {
	return &Feed{pub: pub, logg: logg, now: time.Now}
}

// Emit publishes typ for subjectID with payload marshalled as JSON.
func (f *Feed) Emit(ctx context.Context, typ, subjectID string, payload any) {
	if f == nil || f.pub == nil {
		return
	}
	evt, err := NewEvent(typ, subjectID, payload, f.now())
	if err == nil {
		err = f.pub.Publish(ctx, evt)
	}
	if err != nil && f.logg != nil {
		logCtx := f.logg.WithFields(ctx, map[string]any{"event_type": typ, "subject_id": subjectID})
		f.logg.Warn(f.logg.WithField(logCtx, "error", err.Error()), "event publish failed")
	}
}

// NewEvent assembles an event with a fresh id.
func NewEvent(typ, subjectID string, payload any, at time.Time) (Event, error) {
	evt := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		SubjectID:  subjectID,
		OccurredAt: at.UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		evt.Payload = raw
	}
	return evt, nil
}
