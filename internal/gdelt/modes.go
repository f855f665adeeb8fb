package gdelt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// fixedModes are always pulled once per run.
var fixedModes = []string{
	"TimelineVolRaw",
	"TimelineVolInfo",
	"TimelineTone",
	"ToneChart",
}

// Modes returns the fixed-interval modes worth pulling for the given
// query. Language and country breakdowns are skipped when the query
// already pins them down.
func Modes(query QuerySpec) []string {
	modes := make([]string, len(fixedModes))
	copy(modes, fixedModes)

	if query.Language == "" {
		modes = append(modes, "TimelineLang")
	}

	if query.Country == "" {
		modes = append(modes, "TimelineSourceCountry")
	}

	return modes
}

// PullModes fetches every applicable mode concurrently and saves each
// body verbatim as <Mode>.csv in outDir. The limiter is shared with
// the article loop so the combined request stream stays throttled.
func (c *Client) PullModes(ctx context.Context, query QuerySpec, start, end Cursor, outDir string, limiter *rate.Limiter) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, mode := range Modes(query) {
		mode := mode
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}

			c.log.Info("Pulling data for mode", "mode", mode)

			body, err := c.FetchMode(ctx, query, start, end, mode)
			if err != nil {
				return fmt.Errorf("mode %s: %w", mode, err)
			}

			path := filepath.Join(outDir, mode+".csv")
			if err := os.WriteFile(path, body, 0644); err != nil {
				return fmt.Errorf("mode %s: failed to write output: %w", mode, err)
			}

			return nil
		})
	}

	return g.Wait()
}
