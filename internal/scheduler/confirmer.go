package scheduler

import (
	"context"
	"time"
)

// ConfirmOutcome is the result of the bounded delivery poll.
type ConfirmOutcome int

const (
	// ConfirmDelivered means the provider reported terminal delivery.
	ConfirmDelivered ConfirmOutcome = iota
	// ConfirmBounced means the provider reported a terminal failure event.
	ConfirmBounced
	// ConfirmTimedOut means no terminal event arrived within the poll
	// bound. Treated as a soft success, not a failure.
	ConfirmTimedOut
)

const eventDelivered = "delivered"

// terminal failure events per the provider's event vocabulary
var failureEvents = map[string]struct{}{
	"bounced":     {},
	"soft_bounce": {},
	"error":       {},
}

// Confirmer polls the provider for one in-flight message's terminal
// status. The poll is deliberately capped: an unresponsive provider
// must not stall the scheduler indefinitely.
type Confirmer struct {
	attempts int
	interval time.Duration
	sleep    func(time.Duration)
}

func NewConfirmer(attempts int, interval time.Duration) *Confirmer {
	if attempts <= 0 {
		attempts = 10
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Confirmer{
		attempts: attempts,
		interval: interval,
		sleep:    time.Sleep,
	}
}

// Confirm blocks for up to attempts*interval. Query errors count as
// transient: the next attempt simply tries again.
func (c *Confirmer) Confirm(ctx context.Context, provider Provider, messageID string) (ConfirmOutcome, []string) {
	for i := 0; i < c.attempts; i++ {
		c.sleep(c.interval)

		events, err := provider.MessageEvents(ctx, messageID)
		if err != nil {
			continue
		}

		for _, name := range events {
			if name == eventDelivered {
				return ConfirmDelivered, events
			}
		}
		for _, name := range events {
			if _, bad := failureEvents[name]; bad {
				return ConfirmBounced, events
			}
		}
	}
	return ConfirmTimedOut, nil
}
