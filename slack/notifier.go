package slack

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mealplanner"
)

const defaultPostTimeout = 10 * time.Second

type poster interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// EventNotifier posts a message when a run completes or fails.
type EventNotifier struct {
	client  poster
	channel string
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewEventNotifier(client poster, channel string) *EventNotifier {
	return &EventNotifier{client: client, channel: channel, timeout: defaultPostTimeout}
}

// Sink returns an event sink that posts in the background. Call Wait before
// exiting to let pending posts finish.
func (n *EventNotifier) Sink(ctx context.Context) mealplanner.EventSink {
	ctx = context.WithoutCancel(ctx)
	return func(e mealplanner.Event) {
		msg, ok := Message(e)
		if !ok {
			return
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			postCtx, cancel := context.WithTimeout(ctx, n.timeout)
			defer cancel()
			if err := n.client.PostMessage(postCtx, n.channel, msg); err != nil {
				slog.Warn("SLACK: Failed to post message", "run_id", e.RunID, "type", e.Type, "error", err)
			}
		}()
	}
}

// Wait blocks until every pending post has returned.
func (n *EventNotifier) Wait() {
	n.wg.Wait()
}

// Message renders the notification for an event. Only complete and error
// events produce one.
func Message(e mealplanner.Event) (string, bool) {
	switch e.Type {
	case mealplanner.EventComplete:
		return fmt.Sprintf(":white_check_mark: Meal plan %s ready: %v days, %v meals", e.RunID, e.Data["days"], e.Data["meals"]), true
	case mealplanner.EventError:
		if e.Node != "coordinator" {
			return "", false
		}
		return fmt.Sprintf(":x: Meal plan %s failed (%s): %v", e.RunID, e.Status, e.Data["message"]), true
	default:
		return "", false
	}
}
