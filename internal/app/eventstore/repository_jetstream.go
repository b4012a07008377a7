package eventstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/bullet-productivity/journal/internal/contracts"
	"github.com/bullet-productivity/journal/internal/messaging"
	"github.com/bullet-productivity/journal/internal/platform/natsutil"
)

// JetStreamRepository keeps the log in a JetStream stream. Stream sequence is
// log order; envelope IDs go out as Nats-Msg-Id so the server drops re-appends
// inside messaging.DuplicateWindow.
type JetStreamRepository struct {
	Client *natsutil.Client
}

func NewJetStreamRepository(client *natsutil.Client) *JetStreamRepository {
	return &JetStreamRepository{Client: client}
}

func (r *JetStreamRepository) Append(ctx context.Context, env contracts.Envelope) (bool, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return false, fmt.Errorf("marshal envelope: %w", err)
	}
	opts := []nats.PubOpt{nats.Context(ctx)}
	if env.ID != "" {
		opts = append(opts, nats.MsgId(env.ID))
	}
	ack, err := r.Client.JS.Publish(messaging.EventsSubject, payload, opts...)
	if err != nil {
		return false, fmt.Errorf("publish to %s: %w", messaging.EventsStream, err)
	}
	return !ack.Duplicate, nil
}

func (r *JetStreamRepository) Load(ctx context.Context) ([]contracts.Envelope, error) {
	info, err := r.Client.JS.StreamInfo(messaging.EventsStream, nats.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("stream info: %w", err)
	}
	last := info.State.LastSeq
	if info.State.Msgs == 0 {
		return nil, nil
	}

	sub, err := r.Client.JS.SubscribeSync(messaging.EventsSubject,
		nats.OrderedConsumer(),
		nats.DeliverAll(),
		nats.BindStream(messaging.EventsStream),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", messaging.EventsStream, err)
	}
	defer sub.Unsubscribe()

	out := make([]contracts.Envelope, 0, info.State.Msgs)
	for {
		msg, err := sub.NextMsgWithContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", messaging.EventsStream, err)
		}
		meta, err := msg.Metadata()
		if err != nil {
			return nil, fmt.Errorf("message metadata: %w", err)
		}
		var env contracts.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return nil, fmt.Errorf("decode stream seq %d: %w", meta.Sequence.Stream, err)
		}
		out = append(out, env)
		if meta.Sequence.Stream >= last {
			return out, nil
		}
	}
}

// Close drains the connection.
func (r *JetStreamRepository) Close() error {
	r.Client.Close()
	return nil
}
