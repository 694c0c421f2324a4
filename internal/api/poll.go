package api

import (
	"context"
	"time"
)

// ProgressEvent is one observation of a generating topology. Exactly one
// terminal event is delivered, after which the channel closes and no further
// polls are issued.
type ProgressEvent struct {
	Progress int
	Message  string

	// Terminal marks the final event: either Result or Err is set.
	Terminal bool
	Result   *TopologyStatus
	Err      error
}

// WatchTopology polls the topology endpoint at the client's configured
// interval until it reports success or error, the transport fails, or ctx is
// cancelled. The returned channel closes after the terminal event (or
// silently on cancellation), guaranteeing no polls outlive a finished or
// abandoned watch.
func WatchTopology(ctx context.Context, c *Client, topologyID string) <-chan ProgressEvent {
	events := make(chan ProgressEvent, 1)

	go func() {
		defer close(events)

		ticker := time.NewTicker(c.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			status, err := c.Topology(ctx, topologyID)
			if err != nil {
				send(ctx, events, ProgressEvent{Terminal: true, Err: err})
				return
			}

			switch status.Status {
			case StatusProcessing:
				send(ctx, events, ProgressEvent{Progress: status.Progress, Message: status.Message})
			case StatusSuccess:
				send(ctx, events, ProgressEvent{Progress: 100, Terminal: true, Result: status})
				return
			case StatusError:
				send(ctx, events, ProgressEvent{Terminal: true, Err: &ProtocolError{Op: "topology", Message: status.Message}})
				return
			default:
				send(ctx, events, ProgressEvent{Terminal: true, Err: &ProtocolError{Op: "topology", Message: "unknown status: " + status.Status}})
				return
			}
		}
	}()

	return events
}

func send(ctx context.Context, ch chan<- ProgressEvent, ev ProgressEvent) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}
