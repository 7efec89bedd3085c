/*
rates.go - Worker wage rates

PURPOSE:
  Each worker has a single-unit and a double-unit rate used to price
  user-work entries, and a lock flag that freezes the rates.

TWO FORMATS:
  worker_rates  [{name, rateSingle, rateDouble, locked}]   (current)
  rates         {name: {s, d}}                            (legacy)

  Reading migrates lazily: when worker_rates is empty and the legacy map
  is not, the map is converted (locked=false) and written to worker_rates.
  Later reads find the list and never migrate again.

  Writing always mirrors the list back into the legacy map, so anything
  still reading "rates" sees the same numbers.
*/
package hisab

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LoadWorkerRates returns the unified rate list, migrating the legacy map
// on first read.
func (b *Book) LoadWorkerRates(ctx context.Context) []WorkerRate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadWorkerRates(ctx)
}

func (b *Book) loadWorkerRates(ctx context.Context) []WorkerRate {
	rates := GetArray[WorkerRate](ctx, b.storage, KeyWorkerRates)
	if len(rates) > 0 {
		return rates
	}

	legacy := Get(ctx, b.storage, KeyLegacyRates, map[string]legacyRate{})
	if len(legacy) == 0 {
		return rates
	}

	names := make([]string, 0, len(legacy))
	for name := range legacy {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := legacy[name]
		rates = append(rates, WorkerRate{
			Name:       name,
			RateSingle: r.S,
			RateDouble: r.D,
			Locked:     false,
		})
	}
	Set(ctx, b.storage, KeyWorkerRates, rates)

	b.log.WithField("workers", len(rates)).Info("migrated legacy worker rates")
	return rates
}

// SaveWorkerRates writes the list and its legacy mirror.
func (b *Book) SaveWorkerRates(ctx context.Context, rates []WorkerRate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveWorkerRates(ctx, rates)
}

func (b *Book) saveWorkerRates(ctx context.Context, rates []WorkerRate) {
	if rates == nil {
		rates = []WorkerRate{}
	}
	Set(ctx, b.storage, KeyWorkerRates, rates)

	legacy := make(map[string]legacyRate, len(rates))
	for _, r := range rates {
		legacy[r.Name] = legacyRate{S: r.RateSingle, D: r.RateDouble}
	}
	Set(ctx, b.storage, KeyLegacyRates, legacy)
}

// WorkerRate looks up one worker's rate.
func (b *Book) WorkerRate(ctx context.Context, name string) (WorkerRate, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return findRate(b.loadWorkerRates(ctx), name)
}

func findRate(rates []WorkerRate, name string) (WorkerRate, bool) {
	for _, r := range rates {
		if r.Name == name {
			return r, true
		}
	}
	return WorkerRate{}, false
}

// ToggleWorkerLock flips the lock flag of name and no other worker.
func (b *Book) ToggleWorkerLock(ctx context.Context, name string) (WorkerRate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rates := b.loadWorkerRates(ctx)
	for i := range rates {
		if rates[i].Name == name {
			rates[i].Locked = !rates[i].Locked
			b.saveWorkerRates(ctx, rates)
			b.log.WithFields(log.Fields{"worker": name, "locked": rates[i].Locked}).Info("worker lock toggled")
			return rates[i], nil
		}
	}
	return WorkerRate{}, b.reject(ErrWorkerNotFound)
}

// SetWorkerRate changes the rates of an unlocked worker.
func (b *Book) SetWorkerRate(ctx context.Context, name string, single, double decimal.Decimal) (WorkerRate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if single.IsNegative() || double.IsNegative() {
		return WorkerRate{}, b.reject(invalid("rate", "rates cannot be negative"))
	}

	rates := b.loadWorkerRates(ctx)
	for i := range rates {
		if rates[i].Name != name {
			continue
		}
		if rates[i].Locked {
			return WorkerRate{}, b.reject(ErrRateLocked)
		}
		rates[i].RateSingle = single
		rates[i].RateDouble = double
		b.saveWorkerRates(ctx, rates)
		b.notify.Success("rate updated for " + name)
		return rates[i], nil
	}
	return WorkerRate{}, b.reject(ErrWorkerNotFound)
}
