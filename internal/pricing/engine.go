package pricing

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/arga-dev/backend-envio/internal/obs"
	"github.com/arga-dev/backend-envio/internal/rule"
	"github.com/arga-dev/backend-envio/internal/tariff"
)

// Input carries the shipment attributes a price is computed from.
type Input struct {
	ServiceType       string  `json:"service_type" validate:"required"`
	WeightKg          float64 `json:"weight_kg" validate:"required,gt=0"`
	VolumeCm3         float64 `json:"volume_cm3" validate:"gte=0"`
	DistanceKm        float64 `json:"distance_km" validate:"gte=0"`
	HasInsurance      bool    `json:"has_insurance"`
	DeclaredValue     float64 `json:"declared_value" validate:"gte=0"`
	RequiresSignature bool    `json:"requires_signature"`
}

// Line is one priced entry in the breakdown.
type Line struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Result is the fully itemised outcome of a price calculation. Amounts stay
// unrounded; only TotalAmount is rounded, once, to the nearest currency unit.
type Result struct {
	BasePrice      float64 `json:"base_price"`
	WeightPrice    float64 `json:"weight_price"`
	VolumePrice    float64 `json:"volume_price"`
	DistancePrice  float64 `json:"distance_price"`
	InsurancePrice float64 `json:"insurance_price"`
	HandlingFee    float64 `json:"handling_fee"`
	DeliveryFee    float64 `json:"delivery_fee"`
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	TotalAmount    float64 `json:"total_amount"`
	Breakdown      []Line  `json:"breakdown"`
}

// Options tune a single calculation.
type Options struct {
	// TaxRateBPS is the flat tax rate in basis points (1600 = 16%).
	TaxRateBPS int
	// SkipRules computes a tariff-only price, bypassing the rule engine.
	SkipRules bool
	// AsOf anchors rule eligibility windows. Zero means time.Now.
	AsOf time.Time
	// Logger receives fail-open notices about inert rules. Optional.
	Logger *zerolog.Logger
}

// Compute derives an itemised, taxed price from the shipment attributes, the
// selected tariff and the rule catalog snapshot. It is pure: identical inputs
// always produce an identical result.
func Compute(in Input, t tariff.Tariff, rules []rule.Rule, opts Options) Result {
	res := Result{}
	total := 0.0

	// Base price opens the breakdown even when zero.
	res.BasePrice = t.BasePrice
	total += t.BasePrice
	res.Breakdown = append(res.Breakdown, Line{Description: "base price", Amount: t.BasePrice})

	res.WeightPrice = t.PricePerKg * in.WeightKg
	total += res.WeightPrice
	if res.WeightPrice > 0 {
		res.Breakdown = append(res.Breakdown, Line{Description: "weight surcharge", Amount: res.WeightPrice})
	}

	if t.PricePerVolume > 0 && in.VolumeCm3 > 0 {
		res.VolumePrice = t.PricePerVolume * in.VolumeCm3
		total += res.VolumePrice
		if res.VolumePrice > 0 {
			res.Breakdown = append(res.Breakdown, Line{Description: "volume surcharge", Amount: res.VolumePrice})
		}
	}

	// Distance pricing is declared but not implemented; it contributes zero.
	res.DistancePrice = 0

	if in.HasInsurance && in.DeclaredValue > 0 {
		res.InsurancePrice = in.DeclaredValue * t.InsuranceRatePct / 100
		total += res.InsurancePrice
		if res.InsurancePrice > 0 {
			res.Breakdown = append(res.Breakdown, Line{Description: "insurance", Amount: res.InsurancePrice})
		}
	}

	res.HandlingFee = t.HandlingFee
	total += t.HandlingFee
	if t.HandlingFee > 0 {
		res.Breakdown = append(res.Breakdown, Line{Description: "handling fee", Amount: t.HandlingFee})
	}

	res.DeliveryFee = t.DeliveryFee
	total += t.DeliveryFee
	if t.DeliveryFee > 0 {
		res.Breakdown = append(res.Breakdown, Line{Description: "delivery fee", Amount: t.DeliveryFee})
	}

	if !opts.SkipRules {
		total = applyRules(in, rules, opts, total, &res.Breakdown)
	}

	res.Subtotal = total
	res.TaxAmount = total * float64(opts.TaxRateBPS) / 10000
	res.Breakdown = append(res.Breakdown, Line{Description: "tax", Amount: res.TaxAmount})
	res.TotalAmount = math.Round(res.Subtotal + res.TaxAmount)
	return res
}

// applyRules folds the eligible rules over the running total in priority
// order. Every effect is computed against the current total, so stacked
// adjustments compound deterministically.
func applyRules(in Input, rules []rule.Rule, opts Options, total float64, breakdown *[]Line) float64 {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	eligible := make([]rule.Rule, 0, len(rules))
	for _, r := range rules {
		if r.InEffect(asOf) {
			eligible = append(eligible, r)
		}
	}
	// Stable: equal priorities keep catalog order, which is the only
	// tie-break the result depends on.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority > eligible[j].Priority
	})

	for _, r := range eligible {
		if r.Malformed() {
			noteInert(opts.Logger, r)
			continue
		}
		value, ok := conditionValue(in, r.Field, total)
		if !ok || !r.Op.Matches(value, r.ValueFrom, r.ValueTo) {
			continue
		}
		effect := ruleEffect(r, total)
		if effect == 0 {
			continue
		}
		label := "surcharge: " + r.Name
		if r.Action == rule.ActionPercentage && r.ActionValue < 0 {
			label = "discount: " + r.Name
		}
		*breakdown = append(*breakdown, Line{Description: label, Amount: effect})
		total += effect
	}
	return total
}

// conditionValue resolves the attribute a rule condition reads. The lookup is
// closed: unknown fields report no value and the rule stays inert.
func conditionValue(in Input, field rule.ConditionField, total float64) (float64, bool) {
	switch field {
	case rule.FieldWeightKg:
		return in.WeightKg, true
	case rule.FieldVolumeCm3:
		return in.VolumeCm3, true
	case rule.FieldDistanceKm:
		return in.DistanceKm, true
	case rule.FieldHasInsurance:
		return boolValue(in.HasInsurance), true
	case rule.FieldRequiresSignature:
		return boolValue(in.RequiresSignature), true
	case rule.FieldTotalAmount:
		return total, true
	default:
		return 0, false
	}
}

func ruleEffect(r rule.Rule, total float64) float64 {
	switch r.Action {
	case rule.ActionAdd, rule.ActionFixed:
		return r.ActionValue
	case rule.ActionMultiply:
		return total * r.ActionValue
	case rule.ActionPercentage:
		return total * r.ActionValue / 100
	default:
		return 0
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func noteInert(logger *zerolog.Logger, r rule.Rule) {
	if obs.RuleInertTotal != nil {
		obs.RuleInertTotal.Inc()
	}
	if logger == nil {
		return
	}
	logger.Warn().
		Str("rule_id", r.ID.String()).
		Str("rule_name", r.Name).
		Str("condition_field", r.Field.String()).
		Str("operator", r.Op.String()).
		Str("action_type", r.Action.String()).
		Msg("pricing rule skipped as malformed")
}
