package features

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds BatchExtract when no worker count is given
const DefaultWorkers = 4

// BatchExtract extracts every URL with at most workers running at once.
// Duplicate inputs are extracted once. The result is keyed by input.
func (e *Extractor) BatchExtract(ctx context.Context, urls []string, workers int) (map[string]core.FeatureVector, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make(map[string]core.FeatureVector, len(urls))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	seen := make(map[string]struct{}, len(urls))
	for _, rawURL := range urls {
		if _, ok := seen[rawURL]; ok {
			continue
		}
		seen[rawURL] = struct{}{}

		rawURL := rawURL
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vector := e.Extract(gctx, rawURL)

			mu.Lock()
			results[rawURL] = vector
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch extraction interrupted: %w", err)
	}

	e.logger.Info("Extracted features",
		zap.Int("inputs", len(urls)),
		zap.Int("unique", len(results)),
		zap.Int("workers", workers))

	return results, nil
}

// WriteCSV writes one row per URL, in input order, under a header of "url"
// followed by the canonical feature names.
func WriteCSV(w io.Writer, urls []string, vectors map[string]core.FeatureVector) error {
	writer := csv.NewWriter(w)

	header := append([]string{"url"}, core.FeatureNames...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(header))
	for _, rawURL := range urls {
		vector, ok := vectors[rawURL]
		if !ok {
			continue
		}
		row[0] = rawURL
		for i, value := range vector.Values() {
			row[i+1] = strconv.FormatFloat(value, 'f', -1, 64)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", rawURL, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
