package rule

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConditionField identifies the shipment attribute a rule condition reads.
// Rows carrying a field the engine does not recognise decode to FieldUnknown
// and never match.
type ConditionField uint8

const (
	FieldUnknown ConditionField = iota
	FieldWeightKg
	FieldVolumeCm3
	FieldDistanceKm
	FieldHasInsurance
	FieldRequiresSignature
	FieldTotalAmount
)

// ParseConditionField decodes the stored field name.
func ParseConditionField(s string) ConditionField {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weight_kg":
		return FieldWeightKg
	case "volume_cm3":
		return FieldVolumeCm3
	case "distance_km":
		return FieldDistanceKm
	case "has_insurance":
		return FieldHasInsurance
	case "requires_signature":
		return FieldRequiresSignature
	case "total_amount":
		return FieldTotalAmount
	default:
		return FieldUnknown
	}
}

// String returns the storage representation of the field.
func (f ConditionField) String() string {
	switch f {
	case FieldWeightKg:
		return "weight_kg"
	case FieldVolumeCm3:
		return "volume_cm3"
	case FieldDistanceKm:
		return "distance_km"
	case FieldHasInsurance:
		return "has_insurance"
	case FieldRequiresSignature:
		return "requires_signature"
	case FieldTotalAmount:
		return "total_amount"
	default:
		return "unknown"
	}
}

// Operator is the comparison applied between the condition value and the
// rule thresholds.
type Operator uint8

const (
	OpUnknown Operator = iota
	OpEq
	OpGt
	OpLt
	OpGte
	OpLte
	OpBetween
)

// ParseOperator decodes the stored operator symbol.
func ParseOperator(s string) Operator {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "=":
		return OpEq
	case ">":
		return OpGt
	case "<":
		return OpLt
	case ">=":
		return OpGte
	case "<=":
		return OpLte
	case "BETWEEN":
		return OpBetween
	default:
		return OpUnknown
	}
}

// String returns the storage representation of the operator.
func (o Operator) String() string {
	switch o {
	case OpEq:
		return "="
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	case OpBetween:
		return "BETWEEN"
	default:
		return "unknown"
	}
}

// Matches evaluates the operator against the condition value. For OpBetween
// both bounds are inclusive and a nil upper bound means unbounded above. An
// unrecognised operator never matches.
func (o Operator) Matches(value, from float64, to *float64) bool {
	switch o {
	case OpEq:
		return value == from
	case OpGt:
		return value > from
	case OpLt:
		return value < from
	case OpGte:
		return value >= from
	case OpLte:
		return value <= from
	case OpBetween:
		if value < from {
			return false
		}
		return to == nil || value <= *to
	default:
		return false
	}
}

// ActionType selects how a matched rule adjusts the running total.
type ActionType uint8

const (
	ActionUnknown ActionType = iota
	ActionAdd
	ActionMultiply
	ActionPercentage
	// ActionFixed behaves exactly like ActionAdd; the catalog historically
	// stored both spellings.
	ActionFixed
)

// ParseActionType decodes the stored action type.
func ParseActionType(s string) ActionType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADD":
		return ActionAdd
	case "MULTIPLY":
		return ActionMultiply
	case "PERCENTAGE":
		return ActionPercentage
	case "FIXED":
		return ActionFixed
	default:
		return ActionUnknown
	}
}

// String returns the storage representation of the action type.
func (a ActionType) String() string {
	switch a {
	case ActionAdd:
		return "ADD"
	case ActionMultiply:
		return "MULTIPLY"
	case ActionPercentage:
		return "PERCENTAGE"
	case ActionFixed:
		return "FIXED"
	default:
		return "unknown"
	}
}

// Rule is a conditional pricing adjustment evaluated against shipment
// attributes and the running total. Rules are immutable per calculation and
// interact only through the shared running total.
type Rule struct {
	ID             uuid.UUID
	Name           string
	IsActive       bool
	EffectiveDate  time.Time
	ExpirationDate *time.Time
	Priority       int32
	Field          ConditionField
	Op             Operator
	ValueFrom      float64
	ValueTo        *float64
	Action         ActionType
	ActionValue    float64
}

// InEffect reports whether the rule applies on the given date. An absent
// expiration date leaves the rule open-ended.
func (r Rule) InEffect(asOf time.Time) bool {
	if !r.IsActive {
		return false
	}
	if asOf.Before(r.EffectiveDate) {
		return false
	}
	if r.ExpirationDate != nil && asOf.After(*r.ExpirationDate) {
		return false
	}
	return true
}

// Malformed reports whether any of the decoded enums is unrecognised. Such a
// rule is inert: it never matches and never changes a total.
func (r Rule) Malformed() bool {
	return r.Field == FieldUnknown || r.Op == OpUnknown || r.Action == ActionUnknown
}
