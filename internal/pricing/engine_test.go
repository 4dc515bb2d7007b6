package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arga-dev/backend-envio/internal/rule"
	"github.com/arga-dev/backend-envio/internal/tariff"
)

func f64(v float64) *float64 { return &v }

func standardTariff() tariff.Tariff {
	return tariff.Tariff{
		ID:          uuid.New(),
		ServiceType: "STANDARD",
		MaxWeightKg: f64(30),
		BasePrice:   1000,
		PricePerKg:  500,
		IsActive:    true,
	}
}

func activeRule(name string, priority int32, field rule.ConditionField, op rule.Operator, from float64, to *float64, action rule.ActionType, value float64) rule.Rule {
	return rule.Rule{
		ID:            uuid.New(),
		Name:          name,
		IsActive:      true,
		EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Priority:      priority,
		Field:         field,
		Op:            op,
		ValueFrom:     from,
		ValueTo:       to,
		Action:        action,
		ActionValue:   value,
	}
}

var asOf = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func TestComputeBaseAndWeightOnly(t *testing.T) {
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), nil, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})

	assert.Equal(t, 1000.0, res.BasePrice)
	assert.Equal(t, 1000.0, res.WeightPrice)
	assert.Equal(t, 2000.0, res.Subtotal)
	assert.Equal(t, 320.0, res.TaxAmount)
	assert.Equal(t, 2320.0, res.TotalAmount)

	require.Len(t, res.Breakdown, 3)
	assert.Equal(t, "base price", res.Breakdown[0].Description)
	assert.Equal(t, "weight surcharge", res.Breakdown[1].Description)
	assert.Equal(t, "tax", res.Breakdown[2].Description)
}

func TestComputePercentageDiscount(t *testing.T) {
	rules := []rule.Rule{
		activeRule("summer promo", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionPercentage, -10),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})

	assert.Equal(t, 1800.0, res.Subtotal)
	assert.Equal(t, 288.0, res.TaxAmount)
	assert.Equal(t, 2088.0, res.TotalAmount)

	var discount *Line
	for i := range res.Breakdown {
		if res.Breakdown[i].Description == "discount: summer promo" {
			discount = &res.Breakdown[i]
		}
	}
	require.NotNil(t, discount, "discount line missing from breakdown")
	assert.Equal(t, -200.0, discount.Amount)
}

func TestComputePositivePercentageLabelledSurcharge(t *testing.T) {
	rules := []rule.Rule{
		activeRule("fuel adjustment", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionPercentage, 5),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	require.Len(t, res.Breakdown, 4)
	assert.Equal(t, "surcharge: fuel adjustment", res.Breakdown[2].Description)
	assert.Equal(t, 100.0, res.Breakdown[2].Amount)
}

func TestComputeRuleOrderingCompounds(t *testing.T) {
	// The ADD runs first (higher priority); the PERCENTAGE then reads the
	// already adjusted total: (2000+500) * -10% = -250.
	rules := []rule.Rule{
		activeRule("late discount", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionPercentage, -10),
		activeRule("early surcharge", 20, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 500),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})

	assert.Equal(t, 2250.0, res.Subtotal)
	assert.Equal(t, 2610.0, res.TotalAmount)

	require.Len(t, res.Breakdown, 5)
	assert.Equal(t, "surcharge: early surcharge", res.Breakdown[2].Description)
	assert.Equal(t, "discount: late discount", res.Breakdown[3].Description)
	assert.Equal(t, -250.0, res.Breakdown[3].Amount)
}

func TestComputeEqualPriorityKeepsCatalogOrder(t *testing.T) {
	rules := []rule.Rule{
		activeRule("first", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 100),
		activeRule("second", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionPercentage, -10),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	// (2000 + 100) then -10% of 2100.
	assert.Equal(t, 1890.0, res.Subtotal)
	assert.Equal(t, "surcharge: first", res.Breakdown[2].Description)
	assert.Equal(t, "discount: second", res.Breakdown[3].Description)
}

func TestComputeFixedBehavesLikeAdd(t *testing.T) {
	add := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), []rule.Rule{
		activeRule("adj", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 250),
	}, Options{TaxRateBPS: 1600, AsOf: asOf})
	fixed := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), []rule.Rule{
		activeRule("adj", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionFixed, 250),
	}, Options{TaxRateBPS: 1600, AsOf: asOf})

	assert.Equal(t, add.Subtotal, fixed.Subtotal)
	assert.Equal(t, add.TotalAmount, fixed.TotalAmount)
}

func TestComputeMultiplyAppliesFactorOfTotal(t *testing.T) {
	rules := []rule.Rule{
		activeRule("half again", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionMultiply, 0.5),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	assert.Equal(t, 3000.0, res.Subtotal)
}

func TestComputeBetweenBoundsInclusive(t *testing.T) {
	cases := []struct {
		name    string
		weight  float64
		applied bool
	}{
		{"below lower bound", 1.99, false},
		{"at lower bound", 2, true},
		{"inside", 5, true},
		{"at upper bound", 8, true},
		{"above upper bound", 8.01, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rules := []rule.Rule{
				activeRule("band", 10, rule.FieldWeightKg, rule.OpBetween, 2, f64(8), rule.ActionAdd, 100),
			}
			res := Compute(Input{ServiceType: "STANDARD", WeightKg: tc.weight}, standardTariff(), rules, Options{
				TaxRateBPS: 1600, AsOf: asOf,
			})
			base := 1000 + 500*tc.weight
			want := base
			if tc.applied {
				want += 100
			}
			assert.InDelta(t, want, res.Subtotal, 1e-9)
		})
	}
}

func TestComputeBetweenNilUpperBoundUnbounded(t *testing.T) {
	rules := []rule.Rule{
		activeRule("open band", 10, rule.FieldWeightKg, rule.OpBetween, 5, nil, rule.ActionAdd, 100),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 29}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	assert.Equal(t, 1000.0+500*29+100, res.Subtotal)
}

func TestComputeTotalAmountConditionReadsRunningTotal(t *testing.T) {
	// The threshold is only crossed after the higher-priority ADD has run.
	rules := []rule.Rule{
		activeRule("bulk discount", 10, rule.FieldTotalAmount, rule.OpGt, 2200, nil, rule.ActionPercentage, -5),
		activeRule("surcharge", 20, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 500),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	// 2000 + 500 = 2500 > 2200, then -5% = -125.
	assert.Equal(t, 2375.0, res.Subtotal)
}

func TestComputeMalformedRuleIsInert(t *testing.T) {
	malformed := activeRule("broken", 30, rule.FieldUnknown, rule.OpGt, 0, nil, rule.ActionAdd, 9999)
	good := activeRule("good", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 100)

	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), []rule.Rule{malformed, good}, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	assert.Equal(t, 2100.0, res.Subtotal, "malformed rule must not change the total")
}

func TestComputeUnknownOperatorNeverMatches(t *testing.T) {
	r := activeRule("odd", 10, rule.FieldWeightKg, rule.OpUnknown, 0, nil, rule.ActionAdd, 100)
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), []rule.Rule{r}, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	assert.Equal(t, 2000.0, res.Subtotal)
}

func TestComputeExpiredAndFutureRulesSkipped(t *testing.T) {
	expired := activeRule("expired", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 100)
	exp := asOf.Add(-24 * time.Hour)
	expired.ExpirationDate = &exp

	future := activeRule("future", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 100)
	future.EffectiveDate = asOf.Add(24 * time.Hour)

	inactive := activeRule("inactive", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 100)
	inactive.IsActive = false

	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), []rule.Rule{expired, future, inactive}, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	assert.Equal(t, 2000.0, res.Subtotal)
}

func TestComputeSkipRulesBypassesEngine(t *testing.T) {
	rules := []rule.Rule{
		activeRule("promo", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionPercentage, -10),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, SkipRules: true, AsOf: asOf,
	})
	assert.Equal(t, 2000.0, res.Subtotal)
	assert.Equal(t, 2320.0, res.TotalAmount)
}

func TestComputeTaxAppliedExactlyOnce(t *testing.T) {
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), nil, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	taxLines := 0
	for _, line := range res.Breakdown {
		if line.Description == "tax" {
			taxLines++
		}
	}
	assert.Equal(t, 1, taxLines)
	assert.Equal(t, res.Subtotal*0.16, res.TaxAmount)
}

func TestComputeNegativeTotalNotClamped(t *testing.T) {
	rules := []rule.Rule{
		activeRule("over-discount", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, -5000),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	assert.Equal(t, -3000.0, res.Subtotal)
	assert.Less(t, res.TotalAmount, 0.0)
}

func TestComputeZeroEffectProducesNoLine(t *testing.T) {
	rules := []rule.Rule{
		activeRule("noop", 10, rule.FieldWeightKg, rule.OpGt, 0, nil, rule.ActionAdd, 0),
	}
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	require.Len(t, res.Breakdown, 3)
}

func TestComputeInsuranceVolumeHandlingDelivery(t *testing.T) {
	tar := standardTariff()
	tar.PricePerVolume = 0.01
	tar.InsuranceRatePct = 2
	tar.HandlingFee = 50
	tar.DeliveryFee = 120

	res := Compute(Input{
		ServiceType:   "STANDARD",
		WeightKg:      2,
		VolumeCm3:     1000,
		HasInsurance:  true,
		DeclaredValue: 5000,
	}, tar, nil, Options{TaxRateBPS: 1600, AsOf: asOf})

	assert.Equal(t, 10.0, res.VolumePrice)
	assert.Equal(t, 100.0, res.InsurancePrice)
	assert.Equal(t, 50.0, res.HandlingFee)
	assert.Equal(t, 120.0, res.DeliveryFee)
	assert.Equal(t, 2280.0, res.Subtotal)
	require.Len(t, res.Breakdown, 7)
}

func TestComputeInsuranceIgnoredWithoutDeclaredValue(t *testing.T) {
	tar := standardTariff()
	tar.InsuranceRatePct = 2
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2, HasInsurance: true}, tar, nil, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	assert.Equal(t, 0.0, res.InsurancePrice)
	assert.Equal(t, 2000.0, res.Subtotal)
}

func TestComputeZeroBasePriceStillOpensBreakdown(t *testing.T) {
	tar := standardTariff()
	tar.BasePrice = 0
	res := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, tar, nil, Options{TaxRateBPS: 1600, AsOf: asOf})
	require.NotEmpty(t, res.Breakdown)
	assert.Equal(t, "base price", res.Breakdown[0].Description)
	assert.Equal(t, 0.0, res.Breakdown[0].Amount)
}

func TestComputeDeterministic(t *testing.T) {
	in := Input{ServiceType: "STANDARD", WeightKg: 3.7, VolumeCm3: 240, HasInsurance: true, DeclaredValue: 1234.56}
	tar := standardTariff()
	tar.InsuranceRatePct = 1.5
	rules := []rule.Rule{
		activeRule("a", 20, rule.FieldWeightKg, rule.OpGte, 3, nil, rule.ActionAdd, 111.11),
		activeRule("b", 10, rule.FieldTotalAmount, rule.OpGt, 1000, nil, rule.ActionPercentage, -7.5),
	}
	opts := Options{TaxRateBPS: 1600, AsOf: asOf}

	first := Compute(in, tar, rules, opts)
	second := Compute(in, tar, rules, opts)
	assert.Equal(t, first, second)
}

func TestComputeBooleanConditionFields(t *testing.T) {
	rules := []rule.Rule{
		activeRule("signature fee", 10, rule.FieldRequiresSignature, rule.OpEq, 1, nil, rule.ActionAdd, 75),
	}
	with := Compute(Input{ServiceType: "STANDARD", WeightKg: 2, RequiresSignature: true}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	without := Compute(Input{ServiceType: "STANDARD", WeightKg: 2}, standardTariff(), rules, Options{
		TaxRateBPS: 1600, AsOf: asOf,
	})
	assert.Equal(t, 2075.0, with.Subtotal)
	assert.Equal(t, 2000.0, without.Subtotal)
}
