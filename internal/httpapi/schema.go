package httpapi

import (
	"github.com/withstudy/tutor/internal/chat"
	"github.com/withstudy/tutor/internal/contextdoc"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/usage"
)

// Tables lists every model the API reads or writes, in migration order.
func Tables() []any {
	return []any{
		&models.Student{},
		&contextdoc.Document{},
		&chat.Session{},
		&chat.Message{},
		&usage.DailyMetric{},
		&usage.Event{},
	}
}
