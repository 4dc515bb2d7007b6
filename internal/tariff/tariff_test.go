package tariff

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func active(serviceType string, minKg float64, maxKg *float64, basePrice float64) Tariff {
	return Tariff{
		ID:          uuid.New(),
		ServiceType: serviceType,
		MinWeightKg: minKg,
		MaxWeightKg: maxKg,
		BasePrice:   basePrice,
		IsActive:    true,
	}
}

func TestCovers(t *testing.T) {
	cases := []struct {
		name   string
		tariff Tariff
		weight float64
		want   bool
	}{
		{"inside bounded interval", active("STANDARD", 0, f64(5), 0), 3, true},
		{"at lower bound", active("STANDARD", 2, f64(5), 0), 2, true},
		{"at upper bound", active("STANDARD", 2, f64(5), 0), 5, true},
		{"below lower bound", active("STANDARD", 2, f64(5), 0), 1.99, false},
		{"above upper bound", active("STANDARD", 2, f64(5), 0), 5.01, false},
		{"nil max is unbounded", active("FREIGHT", 30, nil, 0), 900, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tariff.Covers(tc.weight))
		})
	}
}

func TestSelectCheapestWins(t *testing.T) {
	cheap := active("STANDARD", 0, f64(10), 800)
	expensive := active("STANDARD", 0, f64(10), 1200)

	got, err := Select([]Tariff{expensive, cheap}, 5)
	require.NoError(t, err)
	assert.Equal(t, cheap.ID, got.ID)
}

func TestSelectEqualPriceKeepsInputOrder(t *testing.T) {
	first := active("STANDARD", 0, f64(10), 1000)
	second := active("STANDARD", 0, f64(10), 1000)

	got, err := Select([]Tariff{first, second}, 5)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestSelectSkipsInactiveAndNonCovering(t *testing.T) {
	inactive := active("STANDARD", 0, f64(10), 500)
	inactive.IsActive = false
	narrow := active("STANDARD", 0, f64(2), 600)
	covering := active("STANDARD", 0, f64(10), 900)

	got, err := Select([]Tariff{inactive, narrow, covering}, 5)
	require.NoError(t, err)
	assert.Equal(t, covering.ID, got.ID)
}

func TestSelectNoneAvailable(t *testing.T) {
	_, err := Select(nil, 5)
	require.ErrorIs(t, err, ErrNoTariffAvailable)

	narrow := active("STANDARD", 0, f64(2), 600)
	_, err = Select([]Tariff{narrow}, 5)
	require.ErrorIs(t, err, ErrNoTariffAvailable)
}
