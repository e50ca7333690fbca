package notification

import (
	"context"

	"github.com/vibemap/vibemap/internal/models"
)

// Repository defines operations for notification storage
type Repository interface {
	// CreateNotification appends a record for a recipient and publishes
	// it on their push channel
	CreateNotification(ctx context.Context, input *CreateNotificationInput) (*models.NotificationRecord, error)

	// FetchNotifications retrieves a recipient's records, newest first
	FetchNotifications(ctx context.Context, input *FetchNotificationsInput) (*FetchNotificationsOutput, error)

	// MarkRead flips a single record to read
	MarkRead(ctx context.Context, input *MarkReadInput) error

	// MarkAllRead flips every record for a recipient to read
	MarkAllRead(ctx context.Context, input *MarkAllReadInput) error

	// DeleteNotification removes a record
	DeleteNotification(ctx context.Context, input *DeleteNotificationInput) error
}
