package buffer

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/teamtasks/domain"
)

// Item is a batch of activity entries that could not reach primary storage. Items
// replay in enqueue order so a user's journal keeps its sequence.
type Item struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Entries   []domain.ActivityEntry `json:"entries"`
	Retries   int                    `json:"retries"`
	Timestamp time.Time              `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
