package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/config"
	"github.com/gearflip/resaleapi/internal/domain"
	"github.com/gearflip/resaleapi/internal/ebay"
	"github.com/gearflip/resaleapi/internal/repository"
	"github.com/gearflip/resaleapi/internal/service"
)

// Worker wraps the Asynq server and the cron scheduler that feeds it.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *zap.Logger
}

// NewWorker constructs a Worker with the sync and auto-process handlers
// registered and their cron schedules wired.
func NewWorker(cfg *config.Config, repos *repository.Repositories, lock *service.RunLock, logger *zap.Logger) (*Worker, error) {
	redisOpts := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}

	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})

	h := &taskHandlers{cfg: cfg, repos: repos, lock: lock, logger: logger}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReturnsSync, h.handleReturnsSync)
	mux.HandleFunc(TaskReturnsAutoProcess, h.handleReturnsAutoProcess)

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})

	syncTask, err := NewReturnsSyncTask(ReturnsTaskPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.Jobs.SyncCron, syncTask, asynq.Queue(QueueDefault)); err != nil {
		return nil, err
	}

	processTask, err := NewReturnsAutoProcessTask(ReturnsTaskPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.Jobs.AutoProcessCron, processTask, asynq.Queue(QueueDefault)); err != nil {
		return nil, err
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
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

type taskHandlers struct {
	cfg    *config.Config
	repos  *repository.Repositories
	lock   *service.RunLock
	logger *zap.Logger
}

func (h *taskHandlers) handleReturnsSync(ctx context.Context, t *asynq.Task) error {
	users, err := h.resolveUsers(ctx, t)
	if err != nil {
		return err
	}

	client := ebay.NewClient(h.cfg.Ebay, h.logger)
	syncService := service.NewSyncService(client, h.repos, h.logger)

	for _, user := range users {
		result, err := syncService.SyncReturns(ctx, user)
		if err != nil {
			h.logger.Error("Scheduled return sync failed",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if result.FailedOAuth {
			h.logger.Warn("Skipping user with expired platform authorization",
				zap.String("user_id", user.ID.String()),
			)
			continue
		}
		h.logger.Info("Return sync complete",
			zap.String("user_id", user.ID.String()),
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("unchanged", result.Unchanged),
			zap.Int("matched", result.Matched),
		)
	}
	return nil
}

func (h *taskHandlers) handleReturnsAutoProcess(ctx context.Context, t *asynq.Task) error {
	users, err := h.resolveUsers(ctx, t)
	if err != nil {
		return err
	}

	client := ebay.NewClient(h.cfg.Ebay, h.logger)
	reconcileService := service.NewReconcileService(client, h.repos, h.lock, h.logger)

	for _, user := range users {
		result, err := reconcileService.ProcessReturns(ctx, user, service.ProcessOptions{
			DryRun:        h.cfg.Jobs.DryRun,
			MinConfidence: h.cfg.Jobs.MinConfidence,
		})
		if err != nil {
			h.logger.Error("Scheduled auto-process failed",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if result.Locked {
			h.logger.Warn("Auto-process skipped, run already in progress",
				zap.String("user_id", user.ID.String()),
			)
			continue
		}
		if result.FailedOAuth {
			h.logger.Warn("Skipping user with expired platform authorization",
				zap.String("user_id", user.ID.String()),
			)
			continue
		}
		h.logger.Info("Auto-process complete",
			zap.String("user_id", user.ID.String()),
			zap.Int("total", result.Summary.Total),
			zap.Int("processed", result.Summary.Processed),
			zap.Int("skipped", result.Summary.Skipped),
			zap.Int("errors", result.Summary.Errors),
			zap.Bool("dry_run", result.Summary.DryRun),
		)
	}
	return nil
}

// resolveUsers expands the task payload to its target users. A bad payload
// is not retried.
func (h *taskHandlers) resolveUsers(ctx context.Context, t *asynq.Task) ([]*domain.User, error) {
	var payload ReturnsTaskPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return nil, asynq.SkipRetry
		}
	}

	if payload.UserID == "" {
		return h.repos.User.ListActive(ctx)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return nil, asynq.SkipRetry
	}
	user, err := h.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return []*domain.User{user}, nil
}
