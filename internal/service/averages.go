package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Averages recomputes cached store rating averages.  Schedule runs the work
// in a background goroutine so a rating response never waits for it; a read
// right after a rating write may still see the previous average.
type Averages struct {
	stores  AverageStore
	log     zerolog.Logger
	obs     Observer
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAverages(stores AverageStore, log zerolog.Logger, obs Observer) *Averages {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Averages{stores: stores, log: log, obs: obs, timeout: 5 * time.Second}
}

// Recompute refreshes the cached average of storeID now.
func (a *Averages) Recompute(ctx context.Context, storeID uint64) error {
	avg, err := a.stores.RecomputeAverage(ctx, storeID)
	a.obs.AverageRecomputed(err == nil)
	if err != nil {
		a.log.Error().Err(err).Uint64("store_id", storeID).Msg("average recompute failed")
		return err
	}
	a.log.Debug().Uint64("store_id", storeID).Float64("average", avg).Msg("store average updated")
	return nil
}

// Schedule recomputes storeID in the background.  Failures are logged only.
func (a *Averages) Schedule(storeID uint64) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		_ = a.Recompute(ctx, storeID)
	}()
}

// Wait blocks until every scheduled recompute has finished.
func (a *Averages) Wait() { a.wg.Wait() }
