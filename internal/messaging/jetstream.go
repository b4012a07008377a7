package messaging

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	EventsStream  = "JOURNAL_EVENTS"
	EventsSubject = "journal.events"

	// Publishes carrying an already-seen Nats-Msg-Id inside this window are dropped.
	DuplicateWindow = 24 * time.Hour
)

// EnsureStreams creates (or validates) the stream that holds the event log:
// - journal.events
func EnsureStreams(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(EventsStream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return err
		}
		if _, addErr := js.AddStream(&nats.StreamConfig{
			Name:       EventsStream,
			Subjects:   []string{EventsSubject},
			Retention:  nats.LimitsPolicy,
			Storage:    nats.FileStorage,
			Replicas:   1,
			Duplicates: DuplicateWindow,
		}); addErr != nil {
			return addErr
		}
	}
	return nil
}
