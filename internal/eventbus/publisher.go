// Package eventbus publishes schedule-solved notifications, adapted from
// the teacher's internal/shared/infrastructure/eventbus (publisher.go,
// rabbitmq_publisher.go): the same Publisher interface and topic-exchange
// RabbitMQPublisher, retargeted to abasolve's single domain event.
package eventbus

import "context"

// Publisher sends a message to the event bus under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
