package rabbitmq

import (
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/withstudy/tutor/internal/usage"
)

func retryQueue(queue string) string { return queue + ".retry" }
func deadQueue(queue string) string  { return queue + ".dlq" }

// declareTopology sets up queue, queue.retry and queue.dlq. Rejected
// messages go to the DLQ; the retry queue dead-letters back to the main
// queue once a message's TTL expires.
func declareTopology(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(
		deadQueue(queue),
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(
		retryQueue(queue),
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		},
	); err != nil {
		return err
	}
	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": deadQueue(queue),
		},
	)
	return err
}

var errBadEvent = errors.New("malformed usage event")

// DecodeTurn parses a delivery body. Events without an id, student or
// subject cannot be recorded and are rejected outright.
func DecodeTurn(body []byte) (usage.TurnEvent, error) {
	var e usage.TurnEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return e, errors.Join(errBadEvent, err)
	}
	if e.EventID == "" || e.StudentID == 0 || !e.Subject.Valid() || e.Day == "" {
		return e, errBadEvent
	}
	return e, nil
}

func IsBadEvent(err error) bool {
	return errors.Is(err, errBadEvent)
}
