package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/arga-dev/backend-envio/internal/obs"
	"github.com/arga-dev/backend-envio/internal/rule"
	"github.com/arga-dev/backend-envio/internal/tariff"
)

// TariffSource lists active tariffs eligible for a service type and weight.
type TariffSource interface {
	ListEligible(ctx context.Context, serviceType string, weightKg float64) ([]tariff.Tariff, error)
}

// RuleSource lists active rules in effect at a point in time.
type RuleSource interface {
	ListActive(ctx context.Context, asOf time.Time) ([]rule.Rule, error)
}

// Service runs price calculations against point-in-time catalog snapshots.
// It holds no mutable state; concurrent calculations are independent.
type Service struct {
	Tariffs    TariffSource
	Rules      RuleSource
	TaxRateBPS int
	Currency   string
	Now        func() time.Time
	Logger     zerolog.Logger
}

// Quote computes the itemised price for the given input. It performs at most
// two reads (tariff snapshot, rule snapshot) before the pure computation.
// Persistence failures downstream never invalidate a returned quote.
func (s *Service) Quote(ctx context.Context, in Input, skipRules bool) (Result, error) {
	if s == nil || s.Tariffs == nil {
		return Result{}, errors.New("pricing service not configured")
	}
	ctx, span := otel.Tracer("pricing.Service").Start(ctx, "PricingService.Quote")
	defer span.End()

	start := s.now()
	result := "error"
	defer func() {
		if obs.QuoteTotal != nil {
			obs.QuoteTotal.WithLabelValues(in.ServiceType, result).Inc()
		}
		if obs.QuoteDuration != nil {
			obs.QuoteDuration.WithLabelValues(in.ServiceType).Observe(obs.DurationMillis(time.Since(start)))
		}
	}()
	span.SetAttributes(
		attribute.String("pricing.service_type", in.ServiceType),
		attribute.Float64("pricing.weight_kg", in.WeightKg),
		attribute.Bool("pricing.skip_rules", skipRules),
	)

	candidates, err := s.Tariffs.ListEligible(ctx, in.ServiceType, in.WeightKg)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}
	selected, err := tariff.Select(candidates, in.WeightKg)
	if err != nil {
		result = "no_tariff"
		return Result{}, err
	}

	asOf := s.now()
	var rules []rule.Rule
	if !skipRules && s.Rules != nil {
		rules, err = s.Rules.ListActive(ctx, asOf)
		if err != nil {
			span.RecordError(err)
			return Result{}, err
		}
	}

	res := Compute(in, selected, rules, Options{
		TaxRateBPS: s.TaxRateBPS,
		SkipRules:  skipRules,
		AsOf:       asOf,
		Logger:     &s.Logger,
	})
	result = "ok"
	span.SetAttributes(attribute.Float64("pricing.total_amount", res.TotalAmount))
	return res, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
