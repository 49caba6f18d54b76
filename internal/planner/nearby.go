// internal/planner/nearby.go
package planner

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// searchNearby runs one search per category concurrently and waits for
// all of them. A failed category contributes no results. It returns the
// results in category order and the number of failed categories.
func (p *Planner) searchNearby(ctx context.Context, center LatLng) ([][]Candidate, int) {
	categories := p.opts.Categories
	results := make([][]Candidate, len(categories))
	var failed atomic.Int32

	var g errgroup.Group
	for i, category := range categories {
		g.Go(func() error {
			req := NearbyRequest{Center: center, Radius: p.opts.SearchRadius, Category: category}
			found, err := p.nearby(ctx, req)
			p.deps.Metrics.search(ctx, category, err != nil)
			if err != nil {
				failed.Add(1)
				p.deps.Logger.Warn("nearby search failed",
					zap.String("category", category),
					zap.Error(err),
				)
				return nil
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()
	return results, int(failed.Load())
}

func (p *Planner) nearby(ctx context.Context, req NearbyRequest) (found []Candidate, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.SearchTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("places provider panic: %v", r)
		}
	}()
	return p.deps.Places.NearbySearch(ctx, req)
}

// mergeCandidates flattens results in order, keeps the first candidate
// for each provider id and stops at max.
func mergeCandidates(results [][]Candidate, max int) []Candidate {
	seen := make(map[string]struct{})
	out := make([]Candidate, 0, max)
	for _, found := range results {
		for _, c := range found {
			if len(out) == max {
				return out
			}
			if c.ID == "" {
				continue
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
