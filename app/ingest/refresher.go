package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/content-comb/app/database"
)

type Runner interface {
	Run(ctx context.Context, source database.Source) (Summary, error)
}

type SourceResult struct {
	SourceID string  `json:"source_id"`
	URL      string  `json:"url"`
	Summary  Summary `json:"summary"`
	Error    string  `json:"error,omitempty"`
}

type Report struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Results   []SourceResult `json:"results"`
}

// Refresher drives a bulk refresh across every registered source. Sources
// are processed concurrently but the call joins all of them before
// returning; one failing source never hides the others' results.
type Refresher struct {
	sourceRepo database.SourceRepository
	ingestor   Runner
}

func NewRefresher(sourceRepo database.SourceRepository, ingestor Runner) *Refresher {
	return &Refresher{sourceRepo: sourceRepo, ingestor: ingestor}
}

func (r *Refresher) Run(ctx context.Context) (Report, error) {
	sources, err := r.sourceRepo.GetAll()
	if err != nil {
		return Report{}, err
	}

	start := time.Now()
	report := Report{Total: len(sources), Results: make([]SourceResult, len(sources))}

	var wg sync.WaitGroup
	for idx, source := range sources {
		wg.Add(1)
		go func(idx int, source database.Source) {
			defer wg.Done()

			result := SourceResult{SourceID: source.ID, URL: source.URL}
			summary, err := r.ingestor.Run(ctx, source)
			result.Summary = summary
			if err != nil {
				result.Error = err.Error()
				slog.Warn("Source refresh failed", "source", source.URL, "error", err)
			}
			report.Results[idx] = result
		}(idx, source)
	}
	wg.Wait()

	for _, result := range report.Results {
		if result.Error == "" {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	slog.Info("Bulk refresh completed",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", time.Since(start).Round(time.Millisecond))

	return report, nil
}
