package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

func TestParseConditionField(t *testing.T) {
	cases := map[string]ConditionField{
		"weight_kg":          FieldWeightKg,
		"WEIGHT_KG":          FieldWeightKg,
		" volume_cm3 ":       FieldVolumeCm3,
		"distance_km":        FieldDistanceKm,
		"has_insurance":      FieldHasInsurance,
		"requires_signature": FieldRequiresSignature,
		"total_amount":       FieldTotalAmount,
		"zip_code":           FieldUnknown,
		"":                   FieldUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseConditionField(in), "input %q", in)
	}
}

func TestParseOperator(t *testing.T) {
	cases := map[string]Operator{
		"=":         OpEq,
		">":         OpGt,
		"<":         OpLt,
		">=":        OpGte,
		"<=":        OpLte,
		"BETWEEN":   OpBetween,
		"between":   OpBetween,
		" BETWEEN ": OpBetween,
		"~=":        OpUnknown,
		"":          OpUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseOperator(in), "input %q", in)
	}
}

func TestParseActionType(t *testing.T) {
	cases := map[string]ActionType{
		"ADD":        ActionAdd,
		"add":        ActionAdd,
		"MULTIPLY":   ActionMultiply,
		"PERCENTAGE": ActionPercentage,
		"FIXED":      ActionFixed,
		"DIVIDE":     ActionUnknown,
		"":           ActionUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseActionType(in), "input %q", in)
	}
}

func TestEnumStringsRoundTrip(t *testing.T) {
	for _, f := range []ConditionField{FieldWeightKg, FieldVolumeCm3, FieldDistanceKm, FieldHasInsurance, FieldRequiresSignature, FieldTotalAmount} {
		assert.Equal(t, f, ParseConditionField(f.String()))
	}
	for _, o := range []Operator{OpEq, OpGt, OpLt, OpGte, OpLte, OpBetween} {
		assert.Equal(t, o, ParseOperator(o.String()))
	}
	for _, a := range []ActionType{ActionAdd, ActionMultiply, ActionPercentage, ActionFixed} {
		assert.Equal(t, a, ParseActionType(a.String()))
	}
}

func TestOperatorMatches(t *testing.T) {
	cases := []struct {
		name  string
		op    Operator
		value float64
		from  float64
		to    *float64
		want  bool
	}{
		{"eq match", OpEq, 5, 5, nil, true},
		{"eq miss", OpEq, 5.0001, 5, nil, false},
		{"gt match", OpGt, 6, 5, nil, true},
		{"gt at boundary", OpGt, 5, 5, nil, false},
		{"lt match", OpLt, 4, 5, nil, true},
		{"gte at boundary", OpGte, 5, 5, nil, true},
		{"lte at boundary", OpLte, 5, 5, nil, true},
		{"between inside", OpBetween, 5, 2, f64(8), true},
		{"between at lower", OpBetween, 2, 2, f64(8), true},
		{"between at upper", OpBetween, 8, 2, f64(8), true},
		{"between below", OpBetween, 1.9, 2, f64(8), false},
		{"between above", OpBetween, 8.1, 2, f64(8), false},
		{"between nil upper", OpBetween, 1e9, 2, nil, true},
		{"unknown never matches", OpUnknown, 5, 5, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.op.Matches(tc.value, tc.from, tc.to))
		})
	}
}

func TestInEffect(t *testing.T) {
	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	exp := asOf.Add(24 * time.Hour)

	base := Rule{IsActive: true, EffectiveDate: asOf.Add(-48 * time.Hour)}

	assert.True(t, base.InEffect(asOf))

	withExp := base
	withExp.ExpirationDate = &exp
	assert.True(t, withExp.InEffect(asOf))
	assert.False(t, withExp.InEffect(exp.Add(time.Second)))

	inactive := base
	inactive.IsActive = false
	assert.False(t, inactive.InEffect(asOf))

	future := base
	future.EffectiveDate = asOf.Add(time.Hour)
	assert.False(t, future.InEffect(asOf))
}

func TestMalformed(t *testing.T) {
	good := Rule{Field: FieldWeightKg, Op: OpGt, Action: ActionAdd}
	assert.False(t, good.Malformed())

	for _, r := range []Rule{
		{Field: FieldUnknown, Op: OpGt, Action: ActionAdd},
		{Field: FieldWeightKg, Op: OpUnknown, Action: ActionAdd},
		{Field: FieldWeightKg, Op: OpGt, Action: ActionUnknown},
	} {
		assert.True(t, r.Malformed())
	}
}
