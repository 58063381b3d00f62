package broker

import (
	"github.com/nats-io/nats.go"
)

// NATSBus is the production Bus backed by a NATS connection: the pack's
// idiomatic choice for a lightweight pub/sub broker fronting the
// simulation core, fanning ingress commands in and outbound event
// batches out over subjects the ingress/egress adapters own.
type NATSBus struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

func DialNATS(url string) (*NATSBus, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(defaultReconnectWait),
	)
	if err != nil {
		return nil, err
	}
	return &NATSBus{conn: conn}, nil
}

func (b *NATSBus) Publish(subject string, payload []byte) error {
	return b.conn.Publish(subject, payload)
}

func (b *NATSBus) Subscribe(subject string, handler func(payload []byte)) error {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return err
	}
	b.subs = append(b.subs, sub)
	return nil
}

func (b *NATSBus) Close() error {
	for _, s := range b.subs {
		_ = s.Unsubscribe()
	}
	b.conn.Close()
	return nil
}
