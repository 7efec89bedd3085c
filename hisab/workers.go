package hisab

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Workers returns the roster.
func (b *Book) Workers(ctx context.Context) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return GetArray[string](ctx, b.storage, KeyWorkers)
}

// AddWorker puts name on the roster with the given rates.
func (b *Book) AddWorker(ctx context.Context, name string, single, double decimal.Decimal) (WorkerRate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return WorkerRate{}, b.reject(invalid("name", "worker name is required"))
	}
	if single.IsNegative() || double.IsNegative() {
		return WorkerRate{}, b.reject(invalid("rate", "rates cannot be negative"))
	}

	workers := GetArray[string](ctx, b.storage, KeyWorkers)
	for _, w := range workers {
		if w == name {
			return WorkerRate{}, b.reject(ErrWorkerExists)
		}
	}

	rate := WorkerRate{Name: name, RateSingle: single, RateDouble: double}
	rates := b.loadWorkerRates(ctx)
	if existing, ok := findRate(rates, name); ok {
		// A rate can outlive a manual roster edit; keep it.
		rate = existing
	} else {
		rates = append(rates, rate)
	}

	Set(ctx, b.storage, KeyWorkers, append(workers, name))
	b.saveWorkerRates(ctx, rates)

	b.log.WithField("worker", name).Info("worker added")
	b.notify.Success("worker added: " + name)
	return rate, nil
}

// DeleteWorker removes name from the roster, the rate store and the admin
// selection. History entries and the account keep the name.
func (b *Book) DeleteWorker(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	workers := GetArray[string](ctx, b.storage, KeyWorkers)
	kept, found := without(workers, name)
	if !found {
		return b.reject(ErrWorkerNotFound)
	}
	Set(ctx, b.storage, KeyWorkers, kept)

	rates := b.loadWorkerRates(ctx)
	keptRates := make([]WorkerRate, 0, len(rates))
	for _, r := range rates {
		if r.Name != name {
			keptRates = append(keptRates, r)
		}
	}
	b.saveWorkerRates(ctx, keptRates)

	selected := GetArray[string](ctx, b.storage, KeySelectedWorkers)
	if keptSel, ok := without(selected, name); ok {
		Set(ctx, b.storage, KeySelectedWorkers, keptSel)
	}

	b.log.WithField("worker", name).Info("worker deleted")
	b.notify.Success("worker deleted: " + name)
	return nil
}

// SelectedWorkers returns the admin's current worker selection.
func (b *Book) SelectedWorkers(ctx context.Context) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return GetArray[string](ctx, b.storage, KeySelectedWorkers)
}

// SelectWorkers stores the admin selection. Names not on the roster are
// dropped.
func (b *Book) SelectWorkers(ctx context.Context, names []string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	roster := make(map[string]bool)
	for _, w := range GetArray[string](ctx, b.storage, KeyWorkers) {
		roster[w] = true
	}
	selected := make([]string, 0, len(names))
	for _, n := range cleanNames(names) {
		if roster[n] {
			selected = append(selected, n)
		} else {
			b.log.WithField("worker", n).Debug("ignoring unknown worker in selection")
		}
	}
	Set(ctx, b.storage, KeySelectedWorkers, selected)
	return selected
}

func without(list []string, name string) ([]string, bool) {
	out := make([]string, 0, len(list))
	found := false
	for _, v := range list {
		if v == name {
			found = true
			continue
		}
		out = append(out, v)
	}
	return out, found
}

