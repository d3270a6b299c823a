package tiercheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nebulon/tierd/pkg/logger"
)

// ErrVerification is returned when at least one set produced a wrong result.
var ErrVerification = errors.New("tier verification failed")

const directoryPermission = 0o750

// Run generates score sets, submits them concurrently and verifies every
// response against the service's own tier table.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("tiercheck")
	stats := &Stats{StartTime: time.Now()}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Info(ctx, "starting tier check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sets", cfg.Sets),
		logger.Int("setSize", cfg.SetSize),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", seed),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	tiers, err := client.Tiers(ctx)
	if err != nil {
		return stats, fmt.Errorf("tier table retrieval failed: %w", err)
	}

	sets, err := NewGenerator(seed).Sets(cfg.Sets, cfg.SetSize, cfg.MaxScore)
	if err != nil {
		return stats, fmt.Errorf("score set generation failed: %w", err)
	}
	stats.SetsGenerated = len(sets)

	if cfg.OutputFile != "" {
		if err := saveSets(cfg.OutputFile, sets); err != nil {
			log.Warn(ctx, "failed to save score sets", logger.Error(err))
		}
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(cfg.Workers, 1))
	for i, set := range sets {
		eg.Go(func() error {
			results, err := client.CalculateTiers(egCtx, set)
			if err != nil {
				return fmt.Errorf("set %d: %w", i, err)
			}
			violations := Verify(set, results, tiers)

			mu.Lock()
			defer mu.Unlock()
			stats.SetsSubmitted++
			stats.EntriesRanked += len(results)
			if len(violations) == 0 {
				stats.SetsPassed++
				return nil
			}
			stats.SetsFailed++
			log.Error(egCtx, "score set failed verification",
				logger.Int("set", i),
				logger.Int("entries", len(set)),
				logger.Int("violations", len(violations)),
				logger.Error(violations[0]),
			)
			if cfg.Verbose {
				for _, v := range violations[1:] {
					log.Debug(egCtx, "violation", logger.Int("set", i), logger.Error(v))
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return stats, fmt.Errorf("score set submission failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.SetsFailed > 0 {
		return stats, fmt.Errorf("%w: %d of %d sets", ErrVerification, stats.SetsFailed, stats.SetsSubmitted)
	}
	log.Info(ctx, "tier check passed")
	return stats, nil
}

// saveSets writes the generated sets to filename as a JSON array.
func saveSets(filename string, sets []ScoreSet) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(sets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal score sets: %w", err)
	}
	return os.WriteFile(filename, append(data, '\n'), 0o600)
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var setsPerSecond float64
	if stats.Duration > 0 {
		setsPerSecond = float64(stats.SetsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("setsGenerated", stats.SetsGenerated),
		logger.Int("setsSubmitted", stats.SetsSubmitted),
		logger.Int("setsPassed", stats.SetsPassed),
		logger.Int("setsFailed", stats.SetsFailed),
		logger.Int("entriesRanked", stats.EntriesRanked),
		logger.Duration("duration", stats.Duration),
		logger.Float64("setsPerSecond", setsPerSecond),
	)
}
