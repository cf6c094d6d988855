package amqp

import (
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/broadcast"
)

const contentType = "application/json"

// newPublishing wraps an encoded invalidation message. Messages are
// transient: a session that was offline starts from a fresh cache anyway.
func newPublishing(body []byte) amqp091.Publishing {
	return amqp091.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp091.Transient,
		Timestamp:    time.Now(),
		Expiration:   "60000", // ms; later messages supersede old invalidations
		Body:         body,
	}
}

func decode(body []byte) (broadcast.Message, error) {
	return broadcast.MessageFromJSON(body)
}
