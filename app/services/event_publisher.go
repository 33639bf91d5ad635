// Package services provides external service integrations and technical concerns like event publishing
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Domain event types published on the inventory channel
const (
	EventHoldCreated        = "hold_created"
	EventHoldApproved       = "hold_approved"
	EventHoldRejected       = "hold_rejected"
	EventHoldExpired        = "hold_expired"
	EventOrderFullyApproved = "order_fully_approved"
	EventScheduleBound      = "schedule_bound"
)

// DomainEvent represents a single inventory change published to downstream consumers
type DomainEvent struct {
	Type            string    `json:"type"`
	ReservationUUID string    `json:"reservation_uuid,omitempty"`
	EpisodeUUID     string    `json:"episode_uuid,omitempty"`
	OrderID         string    `json:"order_id,omitempty"`
	ScheduleID      string    `json:"schedule_id,omitempty"`
	PlacementType   string    `json:"placement_type,omitempty"`
	ActorID         string    `json:"actor_id,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// EventPublisher publishes domain events after reservation state changes
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// RedisEventPublisher publishes events on a redis pub/sub channel
type RedisEventPublisher struct {
	rc      *redis.Client
	channel string
}

// NewRedisEventPublisher creates a redis-backed event publisher
func NewRedisEventPublisher(rc *redis.Client, channel string) EventPublisher {
	if channel == "" {
		channel = "inventory:events"
	}
	return &RedisEventPublisher{
		rc:      rc,
		channel: channel,
	}
}

// Publish serializes the event and publishes it on the configured channel
func (p *RedisEventPublisher) Publish(ctx context.Context, event DomainEvent) error {
	if p.rc == nil {
		return fmt.Errorf("redis client not configured")
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	return p.rc.Publish(ctx, p.channel, payload).Err()
}

// LogEventPublisher writes events to the process log, used when redis is unavailable
type LogEventPublisher struct{}

func NewLogEventPublisher() EventPublisher {
	return &LogEventPublisher{}
}

func (p *LogEventPublisher) Publish(ctx context.Context, event DomainEvent) error {
	log.Printf("event %s reservation=%s order=%s", event.Type, event.ReservationUUID, event.OrderID)
	return nil
}

// MockEventPublisher records events for tests
type MockEventPublisher struct {
	Events []DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (p *MockEventPublisher) Publish(ctx context.Context, event DomainEvent) error {
	p.Events = append(p.Events, event)
	return nil
}
