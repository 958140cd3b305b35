// Package sweeper runs the periodic purge of expired refresh credentials.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"passport/config"
	"passport/internal/delivery"
	"passport/internal/usecase"

	"go.uber.org/fx"
)

// Params holds dependencies for the sweeper, injected by Fx.
type Params struct {
	fx.In
	fx.Lifecycle

	Config      *config.Config
	Logger      *slog.Logger
	Credentials usecase.CredentialUsecase
}

type sweeper struct {
	interval    time.Duration
	logger      *slog.Logger
	credentials usecase.CredentialUsecase
	stop        chan struct{}
}

// New creates the sweeper delivery. Expired credentials are already refused
// at verification time; the sweep just keeps the table from growing without
// bound.
func New(params Params) (delivery.Delivery, error) {
	interval := time.Hour
	if params.Config.Sweep != nil && params.Config.Sweep.Interval > 0 {
		interval = params.Config.Sweep.Interval
	}

	s := &sweeper{
		interval:    interval,
		logger:      params.Logger,
		credentials: params.Credentials,
		stop:        make(chan struct{}),
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			close(s.stop)

			return nil
		},
	})

	return s, nil
}

// Serve runs the sweep loop until the delivery is stopped.
func (s *sweeper) Serve(ctx context.Context) error {
	s.logger.Info("Starting credential sweeper", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case <-ticker.C:
			if _, err := s.credentials.SweepExpired(ctx); err != nil {
				s.logger.Error("Credential sweep failed", slog.Any("error", err))
			}
		}
	}
}
