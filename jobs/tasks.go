// Package jobs defines background tasks and the asynq worker runtime.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeReorderAlert fires when a sale leaves a product at or below
	// its reorder level.
	TaskTypeReorderAlert = "sale:reorder_alert"
	// TaskTypeIdempotencyCleanup prunes stale idempotency keys.
	TaskTypeIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// ReorderAlertPayload describes the product that crossed its threshold.
type ReorderAlertPayload struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorder_level"`
}

// NewReorderAlertTask constructs an asynq task.
func NewReorderAlertTask(payload ReorderAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReorderAlert, data), nil
}

// NewIdempotencyCleanupTask constructs the periodic cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}

// Client submits jobs to the queue and satisfies the sale processor's
// alert enqueuer.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq-backed Client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// ReorderAlert enqueues a reorder alert for a product.
func (c *Client) ReorderAlert(ctx context.Context, productID int64, productName string, quantity, reorderLevel int) error {
	task, err := NewReorderAlertTask(ReorderAlertPayload{
		ProductID:    productID,
		ProductName:  productName,
		Quantity:     quantity,
		ReorderLevel: reorderLevel,
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	return c.client.Close()
}
