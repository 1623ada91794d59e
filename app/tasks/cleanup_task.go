package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/lysyi3m/content-comb/app/database"
)

// CleanupTask deletes articles past the retention age that the user never
// saved and never transformed.
type CleanupTask struct {
	Task
	articleRepo database.ArticleRepository
	maxAge      time.Duration
}

func NewCleanupTask(articleRepo database.ArticleRepository, maxAge time.Duration) *CleanupTask {
	return &CleanupTask{
		Task:        NewTask(TaskTypeCleanup, "articles"),
		articleRepo: articleRepo,
		maxAge:      maxAge,
	}
}

func (t *CleanupTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	deleted, err := t.articleRepo.DeleteStale(time.Now().UTC().Add(-t.maxAge))
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "Cleanup",
		"duration", t.GetDuration(),
		"deleted", deleted)

	return nil
}
