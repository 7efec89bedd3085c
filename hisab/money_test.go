package hisab_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/smart-hisab/hisab"
)

func TestEqualSplit(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  string
	}{
		{"thirds round down", "100", 3, "33.33"},
		{"two thirds round up", "200", 3, "66.67"},
		{"half cent rounds away from zero", "0.05", 2, "0.03"},
		{"exact", "90", 3, "30"},
		{"single head", "12.345", 1, "12.35"},
		{"zero heads", "100", 0, "0"},
		{"negative heads", "100", -2, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decEqual(t, tt.want, hisab.EqualSplit(dec(tt.total), tt.n))
		})
	}
}

func TestEqualSplit_AlwaysCents(t *testing.T) {
	for n := 1; n <= 13; n++ {
		got := hisab.EqualSplit(dec("1000.01"), n)
		assert.True(t, got.Equal(got.Round(2)), "n=%d gave %s", n, got)
	}
}

func TestPerHeadAmount(t *testing.T) {
	stored := dec("12.5")

	t.Run("stored value wins", func(t *testing.T) {
		e := hisab.Entry{Names: []string{"A", "B"}, Amount: dec("100"), PerHead: &stored}
		decEqual(t, "12.5", hisab.PerHeadAmount(e, dec("999"), 7))
	})

	t.Run("falls back to amount over names", func(t *testing.T) {
		e := hisab.Entry{Names: []string{"A", "B", "C"}, Amount: dec("100")}
		decEqual(t, "33.33", hisab.PerHeadAmount(e, decimal.Zero, 0))
	})

	t.Run("falls back to total when amount is zero", func(t *testing.T) {
		e := hisab.Entry{Names: []string{"A", "B"}, Total: dec("50")}
		decEqual(t, "25", hisab.PerHeadAmount(e, decimal.Zero, 0))
	})

	t.Run("explicit fallbacks", func(t *testing.T) {
		e := hisab.Entry{Names: []string{"A"}}
		decEqual(t, "20", hisab.PerHeadAmount(e, dec("80"), 4))
	})

	t.Run("no names", func(t *testing.T) {
		decEqual(t, "0", hisab.PerHeadAmount(hisab.Entry{Amount: dec("10")}, decimal.Zero, 0))
	})
}
