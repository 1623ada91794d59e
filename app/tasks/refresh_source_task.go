package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/ingest"
)

type RefreshSourceTask struct {
	Task
	source   database.Source
	ingestor ingest.Runner
}

func NewRefreshSourceTask(source database.Source, ingestor ingest.Runner) *RefreshSourceTask {
	return &RefreshSourceTask{
		Task:     NewTask(TaskTypeRefreshSource, source.URL),
		source:   source,
		ingestor: ingestor,
	}
}

func (t *RefreshSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	summary, err := t.ingestor.Run(ctx, t.source)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "RefreshSource",
		"source", t.source.URL,
		"duration", t.GetDuration(),
		"added", summary.Added,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", summary.Errors)

	return nil
}
