package rabbitmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTurn(t *testing.T) {
	e, err := DecodeTurn([]byte(`{"event_id":"01J0000000000000000000000A","student_id":3,"subject":"math","day":"2026-04-01","outcome":"replied","duration_seconds":12}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), e.StudentID)
	assert.Equal(t, int64(12), e.DurationSeconds)

	for _, body := range []string{
		`not json`,
		`{"student_id":3,"subject":"math","day":"2026-04-01"}`,
		`{"event_id":"x","subject":"math","day":"2026-04-01"}`,
		`{"event_id":"x","student_id":3,"subject":"music","day":"2026-04-01"}`,
		`{"event_id":"x","student_id":3,"subject":"math"}`,
	} {
		_, err := DecodeTurn([]byte(body))
		assert.True(t, IsBadEvent(err), body)
	}
}

func TestRetriesHeader(t *testing.T) {
	assert.Equal(t, 0, retries(nil))
	assert.Equal(t, 2, retries(amqp.Table{retryHeader: int32(2)}))
	assert.Equal(t, 3, retries(amqp.Table{retryHeader: int64(3)}))
	assert.Equal(t, 0, retries(amqp.Table{retryHeader: "x"}))
}

func TestQueueNames(t *testing.T) {
	assert.Equal(t, "usage_events.retry", retryQueue("usage_events"))
	assert.Equal(t, "usage_events.dlq", deadQueue("usage_events"))
}
