package notification

import (
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

// Config holds configuration for the Redis notification repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// CreateNotificationInput carries the record to append. ID and
// CreatedAt are assigned by the repository.
type CreateNotificationInput struct {
	Type        models.NotificationType
	RecipientID string
	ActorID     string
	SessionID   string
	TagID       string
}

// FetchNotificationsInput selects a recipient's records.
type FetchNotificationsInput struct {
	RecipientID string
	Limit       int
}

// FetchNotificationsOutput carries records, newest first.
type FetchNotificationsOutput struct {
	Records []*models.NotificationRecord
}

// MarkReadInput identifies a single record.
type MarkReadInput struct {
	NotificationID string
}

// MarkAllReadInput identifies a recipient.
type MarkAllReadInput struct {
	RecipientID string
}

// DeleteNotificationInput identifies the record to remove.
type DeleteNotificationInput struct {
	NotificationID string
	RecipientID    string
}

// notificationRow is the backend wire shape for a notification record.
type notificationRow struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	TagID       string    `json:"tag_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	IsRead      bool      `json:"is_read"`
}

func (r *notificationRow) toModel() *models.NotificationRecord {
	return &models.NotificationRecord{
		ID:          r.ID,
		Type:        models.NotificationType(r.Type),
		RecipientID: r.RecipientID,
		ActorID:     r.ActorID,
		SessionID:   r.SessionID,
		TagID:       r.TagID,
		CreatedAt:   r.CreatedAt,
		IsRead:      r.IsRead,
	}
}

// DecodeRow maps a wire row from the change feed into the domain model.
func DecodeRow(raw json.RawMessage) (*models.NotificationRecord, error) {
	var row notificationRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}
