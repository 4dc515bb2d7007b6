package rule

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// cachedRule is the wire shape stored in Redis. Enums travel as their storage
// strings so cache entries survive enum renumbering.
type cachedRule struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	IsActive       bool       `json:"is_active"`
	EffectiveDate  time.Time  `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Priority       int32      `json:"priority"`
	Field          string     `json:"condition_field"`
	Op             string     `json:"operator"`
	ValueFrom      float64    `json:"value_from"`
	ValueTo        *float64   `json:"value_to,omitempty"`
	Action         string     `json:"action_type"`
	ActionValue    float64    `json:"action_value"`
}

// CachedSource serves active-rule lookups through a short-lived Redis cache.
type CachedSource struct {
	Store  Store
	Client *redis.Client
	TTL    time.Duration
}

func activeKey(asOf time.Time) string {
	return "rules:active:" + asOf.UTC().Format("2006-01-02")
}

// ListActive returns the cached active rule list when present, falling back
// to the store otherwise. The key is per calendar day because eligibility is
// date-windowed.
func (c CachedSource) ListActive(ctx context.Context, asOf time.Time) ([]Rule, error) {
	key := activeKey(asOf)
	if c.Client != nil {
		data, err := c.Client.Get(ctx, key).Bytes()
		if err == nil {
			var cached []cachedRule
			if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
				return decodeAll(cached), nil
			}
		} else if err != redis.Nil {
			return nil, err
		}
	}
	rules, err := c.Store.ListActive(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if c.Client != nil && c.TTL > 0 {
		if data, err := json.Marshal(encodeAll(rules)); err == nil {
			_ = c.Client.Set(ctx, key, data, c.TTL).Err()
		}
	}
	return rules, nil
}

// InvalidateActive drops every cached active-rule snapshot. Called after
// catalog writes so quoting sees the change before the TTL lapses.
func (c CachedSource) InvalidateActive(ctx context.Context) error {
	if c.Client == nil {
		return nil
	}
	iter := c.Client.Scan(ctx, 0, "rules:active:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func encodeAll(rules []Rule) []cachedRule {
	out := make([]cachedRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, cachedRule{
			ID:             r.ID,
			Name:           r.Name,
			IsActive:       r.IsActive,
			EffectiveDate:  r.EffectiveDate,
			ExpirationDate: r.ExpirationDate,
			Priority:       r.Priority,
			Field:          r.Field.String(),
			Op:             r.Op.String(),
			ValueFrom:      r.ValueFrom,
			ValueTo:        r.ValueTo,
			Action:         r.Action.String(),
			ActionValue:    r.ActionValue,
		})
	}
	return out
}

func decodeAll(cached []cachedRule) []Rule {
	out := make([]Rule, 0, len(cached))
	for _, c := range cached {
		out = append(out, Rule{
			ID:             c.ID,
			Name:           c.Name,
			IsActive:       c.IsActive,
			EffectiveDate:  c.EffectiveDate,
			ExpirationDate: c.ExpirationDate,
			Priority:       c.Priority,
			Field:          ParseConditionField(c.Field),
			Op:             ParseOperator(c.Op),
			ValueFrom:      c.ValueFrom,
			ValueTo:        c.ValueTo,
			Action:         ParseActionType(c.Action),
			ActionValue:    c.ActionValue,
		})
	}
	return out
}
