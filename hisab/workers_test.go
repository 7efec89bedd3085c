package hisab_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/smart-hisab/hisab"
)

func TestAddWorker(t *testing.T) {
	b := newTestBook(t, nil)
	ctx := context.Background()

	r, err := b.AddWorker(ctx, "  Ravi ", dec("10"), dec("20"))
	require.NoError(t, err)

	assert.Equal(t, "Ravi", r.Name)
	assert.Equal(t, []string{"Ravi"}, b.Workers(ctx))
	stored, ok := b.WorkerRate(ctx, "Ravi")
	require.True(t, ok)
	decEqual(t, "20", stored.RateDouble)
	assert.Contains(t, b.mem.Snapshot()["rates"], `"Ravi"`)
}

func TestAddWorker_Rejections(t *testing.T) {
	b := newTestBook(t, map[string]string{"workers": `["Ravi"]`})
	ctx := context.Background()

	_, err := b.AddWorker(ctx, "Ravi", dec("1"), dec("1"))
	assert.ErrorIs(t, err, hisab.ErrWorkerExists)

	_, err = b.AddWorker(ctx, " ", dec("1"), dec("1"))
	assert.ErrorIs(t, err, hisab.ErrValidation)

	_, err = b.AddWorker(ctx, "Anil", dec("-1"), dec("1"))
	assert.ErrorIs(t, err, hisab.ErrValidation)

	assert.Equal(t, []string{"Ravi"}, b.Workers(ctx))
}

func TestAddWorker_KeepsExistingRate(t *testing.T) {
	b := newTestBook(t, map[string]string{
		"worker_rates": `[{"name":"Ravi","rateSingle":"9","rateDouble":"18","locked":true}]`,
	})
	ctx := context.Background()

	r, err := b.AddWorker(ctx, "Ravi", dec("1"), dec("1"))
	require.NoError(t, err)

	decEqual(t, "9", r.RateSingle)
	assert.True(t, r.Locked)
	assert.Len(t, b.LoadWorkerRates(ctx), 1)
}

func TestDeleteWorker_KeepsHistory(t *testing.T) {
	// GIVEN: A worker with a nasta entry, selected by the admin
	b := newTestBook(t, seededRoster())
	ctx := context.Background()
	b.SelectWorkers(ctx, []string{"A", "B"})
	_, err := b.AddNasta(ctx, hisab.ExpenseInput{Names: []string{"A", "B"}, Amount: dec("10")})
	require.NoError(t, err)

	// WHEN: Deleting A
	require.NoError(t, b.DeleteWorker(ctx, "A"))

	// THEN: A is gone from the roster, rates and selection
	assert.Equal(t, []string{"B", "C"}, b.Workers(ctx))
	_, ok := b.WorkerRate(ctx, "A")
	assert.False(t, ok)
	assert.NotContains(t, b.mem.Snapshot()["rates"], `"A"`)
	assert.Equal(t, []string{"B"}, b.SelectedWorkers(ctx))

	// AND: The history and account still name A
	entries, err := b.Entries(ctx, hisab.KindNasta)
	require.NoError(t, err)
	assert.True(t, entries[0].HasName("A"))
	decEqual(t, "5", b.Account(ctx, "A").Cost)
}

func TestDeleteWorker_Unknown(t *testing.T) {
	b := newTestBook(t, seededRoster())

	err := b.DeleteWorker(context.Background(), "Z")

	assert.ErrorIs(t, err, hisab.ErrWorkerNotFound)
}

func TestSelectWorkers_DropsUnknownNames(t *testing.T) {
	b := newTestBook(t, seededRoster())
	ctx := context.Background()

	got := b.SelectWorkers(ctx, []string{"C", "Ghost", "A", "C"})

	assert.Equal(t, []string{"C", "A"}, got)
	assert.Equal(t, got, b.SelectedWorkers(ctx))
}
