package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/realtime"
)

const (
	notificationKeyPrefix = "notification:"
	userInboxPrefix       = "user_notifications:"

	defaultFetchLimit = 50
)

// ErrNotificationNotFound is returned when a notification is not found
var ErrNotificationNotFound = errors.New("notification not found")

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed notification repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// CreateNotification appends a record and publishes it on the
// recipient's push channel.
func (r *redisRepository) CreateNotification(ctx context.Context, input *CreateNotificationInput) (*models.NotificationRecord, error) {
	if input == nil || input.RecipientID == "" || input.Type == "" {
		return nil, errors.New("input, recipient ID and type cannot be empty")
	}

	row := &notificationRow{
		ID:          uuid.New().String(),
		Type:        string(input.Type),
		RecipientID: input.RecipientID,
		ActorID:     input.ActorID,
		SessionID:   input.SessionID,
		TagID:       input.TagID,
		CreatedAt:   time.Now(),
	}

	if err := r.saveRow(ctx, row); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = realtime.Publish(ctx, r.client, realtime.NotificationsChannel(row.RecipientID), &realtime.Event{
		Op:  realtime.OpInsert,
		New: payload,
	})
	if err != nil {
		return nil, err
	}

	return row.toModel(), nil
}

// FetchNotifications retrieves a recipient's records, newest first.
func (r *redisRepository) FetchNotifications(ctx context.Context, input *FetchNotificationsInput) (*FetchNotificationsOutput, error) {
	if input == nil || input.RecipientID == "" {
		return nil, errors.New("input and recipient ID cannot be empty")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	ids, err := r.client.ZRevRange(ctx, userInboxPrefix+input.RecipientID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get notification inbox: %w", err)
	}

	records := make([]*models.NotificationRecord, 0, len(ids))
	for _, id := range ids {
		row, err := r.getRow(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, row.toModel())
	}

	return &FetchNotificationsOutput{Records: records}, nil
}

// MarkRead flips a single record to read. Marking an already-read
// record is a no-op.
func (r *redisRepository) MarkRead(ctx context.Context, input *MarkReadInput) error {
	if input == nil || input.NotificationID == "" {
		return errors.New("input and notification ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.NotificationID)
	if err != nil {
		return err
	}

	if row.IsRead {
		return nil
	}

	row.IsRead = true
	return r.saveRow(ctx, row)
}

// MarkAllRead flips every record in a recipient's inbox to read.
func (r *redisRepository) MarkAllRead(ctx context.Context, input *MarkAllReadInput) error {
	if input == nil || input.RecipientID == "" {
		return errors.New("input and recipient ID cannot be empty")
	}

	ids, err := r.client.ZRange(ctx, userInboxPrefix+input.RecipientID, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to get notification inbox: %w", err)
	}

	for _, id := range ids {
		row, err := r.getRow(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				continue
			}
			return err
		}
		if row.IsRead {
			continue
		}
		row.IsRead = true
		if err := r.saveRow(ctx, row); err != nil {
			return err
		}
	}

	return nil
}

// DeleteNotification removes a record and its inbox entry.
func (r *redisRepository) DeleteNotification(ctx context.Context, input *DeleteNotificationInput) error {
	if input == nil || input.NotificationID == "" || input.RecipientID == "" {
		return errors.New("input, notification ID and recipient ID cannot be empty")
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, notificationKeyPrefix+input.NotificationID)
	pipe.ZRem(ctx, userInboxPrefix+input.RecipientID, input.NotificationID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	return nil
}

func (r *redisRepository) getRow(ctx context.Context, notificationID string) (*notificationRow, error) {
	payload, err := r.client.Get(ctx, notificationKeyPrefix+notificationID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	var row notificationRow
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	return &row, nil
}

func (r *redisRepository) saveRow(ctx context.Context, row *notificationRow) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, notificationKeyPrefix+row.ID, payload, 0)
	pipe.ZAdd(ctx, userInboxPrefix+row.RecipientID, redis.Z{
		Score:  float64(row.CreatedAt.UnixNano()),
		Member: row.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}
