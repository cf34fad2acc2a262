package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/service"
	"github.com/Eursukkul/discovery-service/pkg/rabbitmq"
)

const handleTimeout = 30 * time.Second

type SeveranceConsumer struct {
	cleanup service.CleanupService
}

func NewSeveranceConsumer(cleanup service.CleanupService) *SeveranceConsumer {
	return &SeveranceConsumer{cleanup: cleanup}
}

// Start revokes RSVPs for each severance message until msgs closes or ctx
// is cancelled. The returned channel closes when the loop exits.
func (sc *SeveranceConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				slog.Info("severance consumer stopping", "reason", ctx.Err())
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Info("severance channel closed, stopping consumer")
					return
				}
				sc.handleMessage(ctx, msg)
			}
		}
	}()
	return done
}

func (sc *SeveranceConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var sev models.RelationSevered
	if err := json.Unmarshal(msg.Body, &sev); err != nil {
		slog.Error("dropping malformed severance message", "message_id", msg.MessageId, "error", err)
		_ = msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := sc.cleanup.HandleSeverance(ctx, sev); err != nil {
		attempt := deliveryCount(msg) + 1
		// an incomplete message will never succeed
		requeue := !errors.Is(err, service.ErrInvalidRelation) && attempt < rabbitmq.MaxDeliver
		slog.Error("severance cleanup failed",
			"message_id", sev.MessageID, "owner_id", sev.OwnerID, "removed_id", sev.RemovedID,
			"attempt", attempt, "requeue", requeue, "error", err)
		_ = msg.Nack(false, requeue)
		return
	}

	slog.Info("severance processed",
		"message_id", sev.MessageID, "kind", sev.Kind, "owner_id", sev.OwnerID, "removed_id", sev.RemovedID)
	_ = msg.Ack(false)
}

// deliveryCount is how many times the broker has already delivered msg.
func deliveryCount(msg amqp.Delivery) int {
	switch n := msg.Headers["x-delivery-count"].(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	}
	if msg.Redelivered {
		return 1
	}
	return 0
}
