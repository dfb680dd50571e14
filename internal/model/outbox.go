package model

import "time"

const (
	EventPostCreated = "post_created"
	EventPostEdited  = "post_edited"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// PostOutbox is written in the same transaction as the post change and
// drained asynchronously by the relayer.
type PostOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"`
	PostID    uint64 `gorm:"not null;index"`
	AuthorID  uint64 `gorm:"not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PostOutbox) TableName() string { return "post_outbox" }
