// internal/chaos/faults.go
package chaos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"heritage/internal/planner"
)

// ErrInjected marks a failure produced by a fault wrapper.
var ErrInjected = errors.New("injected fault")

// FaultyPlaces wraps a places provider so chosen categories fail and
// every search can be delayed.
type FaultyPlaces struct {
	inner planner.PlacesProvider

	mu      sync.RWMutex
	failing map[string]bool
	latency time.Duration
	calls   atomic.Int64
}

func NewFaultyPlaces(inner planner.PlacesProvider) *FaultyPlaces {
	return &FaultyPlaces{inner: inner, failing: map[string]bool{}}
}

// FailCategories makes searches for the given categories fail.
func (f *FaultyPlaces) FailCategories(categories ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range categories {
		f.failing[c] = true
	}
}

// SetLatency delays every search by d, or until its context ends.
func (f *FaultyPlaces) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
}

// Reset removes all faults.
func (f *FaultyPlaces) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = map[string]bool{}
	f.latency = 0
}

// Calls counts searches seen, faulted or not.
func (f *FaultyPlaces) Calls() int64 { return f.calls.Load() }

func (f *FaultyPlaces) NearbySearch(ctx context.Context, req planner.NearbyRequest) ([]planner.Candidate, error) {
	f.calls.Add(1)
	f.mu.RLock()
	fail, latency := f.failing[req.Category], f.latency
	f.mu.RUnlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if fail {
		return nil, fmt.Errorf("nearby search %s: %w", req.Category, ErrInjected)
	}
	return f.inner.NearbySearch(ctx, req)
}

// FaultyDirections wraps a directions provider so routes can be made to
// fail.
type FaultyDirections struct {
	inner   planner.DirectionsProvider
	failing atomic.Bool
}

func NewFaultyDirections(inner planner.DirectionsProvider) *FaultyDirections {
	return &FaultyDirections{inner: inner}
}

func (f *FaultyDirections) Fail(on bool) { f.failing.Store(on) }

func (f *FaultyDirections) Route(ctx context.Context, req planner.RouteRequest) (planner.Route, error) {
	if f.failing.Load() {
		return planner.Route{}, fmt.Errorf("directions: %w", ErrInjected)
	}
	return f.inner.Route(ctx, req)
}
