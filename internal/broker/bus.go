// Package broker is the transport boundary: clients connect
// through a message broker, never directly to the simulation core.
// Ingress and egress adapters talk to a Bus; the core never imports this
// package.
package broker

// Bus is the minimal publish/subscribe contract the server needs: publish
// outbound event batches on a per-tick/per-client subject, and receive
// inbound command payloads via a handler callback. Implementations own
// their own reconnect policy (see Reconnector) and framing.
type Bus interface {
	Publish(subject string, payload []byte) error
	Subscribe(subject string, handler func(payload []byte)) error
	Close() error
}
