package job

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/service"
)

// StartReconciler schedules the daily reconciliation run. The spec uses
// a seconds field, e.g. "0 0 6 * * *" for 06:00 every day.
func StartReconciler(reconciler *service.Reconciler, spec string, log zerolog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		ctx := context.Background()
		if err := reconciler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("reconciliation run failed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info().Str("spec", spec).Msg("reconciler scheduled")
	return c, nil
}
