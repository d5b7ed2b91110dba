package services

import (
  "context"

  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/clients/redis"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/sse"
)

// paymentEventData is the payload pushed to the frontend when a payment or
// report changes state.
type paymentEventData struct {
  DiagnosticID uuid.UUID `json:"diagnostic_id"`
  PaymentID    uuid.UUID `json:"payment_id,omitempty"`
}

// publishUserEvent delivers an event to the user's SSE channel. With a bus
// configured the event goes through redis and comes back to every
// instance's hub, including this one; without a bus it goes straight to
// the local hub.
func publishUserEvent(ctx context.Context, log *logger.Logger, hub *sse.SSEHub, bus redis.PaymentBus, userID uuid.UUID, event sse.SSEEvent, data paymentEventData) {
  msg := sse.SSEMessage{
    Channel: sse.UserChannel(userID),
    Event:   event,
    Data:    data,
  }
  if bus != nil {
    if err := bus.Publish(ctx, msg); err == nil {
      return
    } else {
      log.Warn("Failed to publish event to bus, falling back to local hub", "event", event, "error", err)
    }
  }
  if hub != nil {
    hub.Broadcast(msg)
  }
}
