package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/metrics"
	"github.com/stockroomhq/stockroom-backend/pkg/outbox"
	"github.com/stockroomhq/stockroom-backend/pkg/outbox/payloads"
	"github.com/stockroomhq/stockroom-backend/pkg/outbox/registry"
)

const orderEventsConsumer = "order-events"

type reservationTransitioner interface {
	TransitionForOrder(ctx context.Context, orderNumber string, target enums.ReservationStatus) ([]models.Reservation, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches order lifecycle events and moves the matching
// reservations through their terminal transitions.
type Consumer struct {
	reservations reservationTransitioner
	idempotency  idempotencyChecker
	decoders     *registry.DecoderRegistry
	metrics      *metrics.MessagingMetrics
	logg         *logger.Logger
}

// lifecycleDecoders registers the versioned payload schemas this consumer
// understands.
func lifecycleDecoders() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	statusChanged := func(data json.RawMessage) (interface{}, error) {
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	}
	decoders.Register(enums.EventOrderFulfilled, 1, statusChanged)
	decoders.Register(enums.EventOrderCancelled, 1, statusChanged)
	return decoders
}

// NewConsumer builds an order lifecycle consumer. Metrics are optional.
func NewConsumer(reservations reservationTransitioner, manager idempotencyChecker, m *metrics.MessagingMetrics, logg *logger.Logger) (*Consumer, error) {
	if reservations == nil {
		return nil, fmt.Errorf("reservation service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		reservations: reservations,
		idempotency:  manager,
		decoders:     lifecycleDecoders(),
		metrics:      m,
		logg:         logg,
	}, nil
}

// Run pulls from the orders subscription until the context is canceled.
func (c *Consumer) Run(ctx context.Context, subscription *pubsub.Subscriber) error {
	if subscription == nil {
		return fmt.Errorf("orders subscription required")
	}
	return subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.Process(ctx, msg.Attributes["event_type"], msg.ID, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

// Process classifies one delivery. Malformed or unsupported messages are
// acked without mutating anything so the subscription never wedges on a
// poison message.
func (c *Consumer) Process(ctx context.Context, eventType, messageID string, data []byte) processResult {
	start := time.Now()
	defer func() {
		c.metrics.ObserveDuration(orderEventsConsumer, time.Since(start))
	}()

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderFulfilled) && eventType != string(enums.EventOrderCancelled) {
		c.logg.Info(logCtx, "skipping non-lifecycle event")
		c.metrics.IncSkipped(orderEventsConsumer)
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		c.metrics.IncSkipped(orderEventsConsumer)
		return processResult{ack: true}
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		c.metrics.IncSkipped(orderEventsConsumer)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderEventsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		c.metrics.IncFailed(orderEventsConsumer)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		c.metrics.IncSkipped(orderEventsConsumer)
		return processResult{ack: true}
	}

	parsedType, err := enums.ParseOutboxEventType(eventType)
	if err != nil {
		c.logg.Error(logCtx, "unparseable event type", err)
		c.metrics.IncSkipped(orderEventsConsumer)
		return processResult{ack: true}
	}
	decoded, err := c.decoders.Decode(parsedType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		c.metrics.IncSkipped(orderEventsConsumer)
		return processResult{ack: true}
	}
	payload, ok := decoded.(*payloads.OrderStatusChangedEvent)
	if !ok {
		c.logg.Warn(logCtx, "unexpected payload schema")
		c.metrics.IncSkipped(orderEventsConsumer)
		return processResult{ack: true}
	}
	target, ok := reservationTargetFor(payload.Status)
	if !ok || payload.OrderNumber == "" {
		c.logg.Warn(logCtx, "payload does not describe a lifecycle transition")
		c.metrics.IncSkipped(orderEventsConsumer)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithOrderNumber(logCtx, payload.OrderNumber)
	updated, err := c.reservations.TransitionForOrder(ctx, payload.OrderNumber, target)
	if err != nil {
		c.logg.Error(logCtx, "reservation transition failed", err)
		_ = c.idempotency.Delete(ctx, orderEventsConsumer, eventID)
		c.metrics.IncFailed(orderEventsConsumer)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"status":       payload.Status,
		"reservations": len(updated),
	})
	c.logg.Info(logCtx, "order lifecycle applied to reservations")
	c.metrics.IncProcessed(orderEventsConsumer)
	return processResult{ack: true}
}

func reservationTargetFor(status enums.OrderStatus) (enums.ReservationStatus, bool) {
	switch status {
	case enums.OrderFulfilled:
		return enums.ReservationFulfilled, true
	case enums.OrderCancelled:
		return enums.ReservationCancelled, true
	default:
		return "", false
	}
}
