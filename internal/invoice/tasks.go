package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TypeGenerate is the asynq task type for asynchronous invoice generation.
const TypeGenerate = "invoice:generate"

// NewGenerateTask wraps the generation input as an asynq task.
func NewGenerateTask(in GenerateInput) (*asynq.Task, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerate, payload, asynq.MaxRetry(5)), nil
}

// Locker serialises generation per customer so overlapping tasks for the
// same period cannot bill shipments twice.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// NewGenerateHandler returns the asynq handler processing generation tasks.
// ErrNothingToInvoice completes the task: retrying an empty period is useless.
func NewGenerateHandler(svc *Service, locker Locker, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var in GenerateInput
		if err := json.Unmarshal(t.Payload(), &in); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
		var inv Invoice
		generate := func(ctx context.Context) error {
			var genErr error
			inv, genErr = svc.Generate(ctx, in)
			return genErr
		}
		var err error
		if locker != nil {
			err = locker.WithLock(ctx, "invoice:gen:"+in.CustomerID.String(), time.Minute, generate)
		} else {
			err = generate(ctx)
		}
		if err != nil {
			if err == ErrNothingToInvoice {
				logger.Info().
					Str("customer_id", in.CustomerID.String()).
					Msg("no shipments to invoice in period")
				return nil
			}
			logger.Error().Err(err).
				Str("customer_id", in.CustomerID.String()).
				Msg("invoice generation failed")
			return err
		}
		logger.Info().
			Str("invoice_id", inv.ID.String()).
			Str("number", inv.Number).
			Int("lines", len(inv.Lines)).
			Msg("invoice generated")
		return nil
	}
}
