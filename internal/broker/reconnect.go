package broker

import (
	"time"

	"mobacore/internal/obslog"
)

const defaultReconnectWait = 2 * time.Second

// Reconnector wraps a Bus-dialing function with exponential backoff:
// double the wait on each failure up to maxBackoff, reset to zero on the
// first success.
type Reconnector struct {
	dial           func() (Bus, error)
	maxBackoff     time.Duration
	currentBackoff time.Duration
}

func NewReconnector(dial func() (Bus, error), maxBackoff time.Duration) *Reconnector {
	if maxBackoff <= 0 {
		maxBackoff = 60 * time.Second
	}
	return &Reconnector{dial: dial, maxBackoff: maxBackoff}
}

// Connect retries dial until it succeeds or stop is closed.
func (r *Reconnector) Connect(stop <-chan struct{}) (Bus, error) {
	for {
		bus, err := r.dial()
		if err == nil {
			r.currentBackoff = 0
			return bus, nil
		}

		if r.currentBackoff == 0 {
			r.currentBackoff = 1 * time.Second
		} else {
			r.currentBackoff *= 2
			if r.currentBackoff > r.maxBackoff {
				r.currentBackoff = r.maxBackoff
			}
		}
		obslog.RecordBrokerReconnect()
		obslog.Warnf("broker: connect failed, retrying in %v: %v", r.currentBackoff, err)

		select {
		case <-time.After(r.currentBackoff):
		case <-stop:
			return nil, err
		}
	}
}
