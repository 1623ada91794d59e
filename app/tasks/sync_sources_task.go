package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/sources"
)

// SyncSourcesTask reconciles the YAML seed directory with the sources table.
type SyncSourcesTask struct {
	Task
	loader     *sources.Loader
	sourceRepo database.SourceRepository
}

func NewSyncSourcesTask(loader *sources.Loader, sourceRepo database.SourceRepository) *SyncSourcesTask {
	return &SyncSourcesTask{
		Task:       NewTask(TaskTypeSyncSources, "seeds"),
		loader:     loader,
		sourceRepo: sourceRepo,
	}
}

func (t *SyncSourcesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	seeds, err := t.loader.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load source seeds: %w", err)
	}

	if err := sources.Sync(seeds, t.sourceRepo); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "SyncSources",
		"duration", t.GetDuration(),
		"seeds", len(seeds))

	return nil
}
