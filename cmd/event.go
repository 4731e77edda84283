package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/beyondborders/donation-service/internal/core/events"
	"github.com/beyondborders/donation-service/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus debugging commands",
	Long:  `Publish test events to the in-process event bus and observe handler behavior`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var (
	eventDonationID string
	eventAmount     float64
)

func publishTestEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	testEvent := buildTestEvent(eventType)

	logger.Info("publishing test event", "event_type", eventType, "event_id", testEvent.EventID())

	ctx := context.Background()
	if err := eventBus.Publish(ctx, testEvent); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	time.Sleep(100 * time.Millisecond)
	logger.Info("test event published successfully")
}

// buildTestEvent produces typed donation events for the known types so the
// payload shape matches what real subscribers receive.
func buildTestEvent(eventType string) events.Event {
	switch eventType {
	case events.EventTypeDonationCompleted:
		return events.NewDonationCompletedEvent(eventDonationID, eventAmount, "one-time", "pi_test")
	case events.EventTypeDonationFailed:
		return events.NewDonationFailedEvent(eventDonationID, eventAmount, "card_declined")
	case events.EventTypeSubscriptionCancelled:
		return events.NewSubscriptionCancelledEvent(eventDonationID, "sub_test")
	default:
		return events.BaseEvent{
			ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"source": "cli-command",
			},
		}
	}
}

func init() {
	publishEventCmd.Flags().StringVar(&eventDonationID, "donation-id", "don_test", "Donation id carried in the event payload")
	publishEventCmd.Flags().Float64Var(&eventAmount, "amount", 25, "Donation amount carried in the event payload")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
