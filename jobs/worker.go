package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockline/stockline/internal/shared"
)

// idempotencyRetention bounds how long processed request keys are kept.
const idempotencyRetention = 48 * time.Hour

// Worker wraps the asynq server and scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Idempotency *shared.IdempotencyStore
}

// NewWorker constructs a Worker with the reorder-alert handler and the
// periodic idempotency cleanup registered.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeReorderAlert, reorderAlertHandler(cfg.Logger))
	mux.HandleFunc(TaskTypeIdempotencyCleanup, idempotencyCleanupHandler(cfg.Idempotency))

	scheduler := asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register("0 * * * *", NewIdempotencyCleanupTask(), asynq.Queue(QueueDefault)); err != nil {
		return nil, err
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

func reorderAlertHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReorderAlertPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// Notification delivery (email/SMS) hooks in here; for now the
		// alert lands in the worker log.
		logger.Warn("product at or below reorder level",
			slog.Int64("product_id", payload.ProductID),
			slog.String("product", payload.ProductName),
			slog.Int("quantity", payload.Quantity),
			slog.Int("reorder_level", payload.ReorderLevel),
		)
		return nil
	}
}

func idempotencyCleanupHandler(store *shared.IdempotencyStore) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return store.Cleanup(ctx, idempotencyRetention)
	}
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.scheduler.Shutdown()
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		w.scheduler.Shutdown()
		return err
	}
}
