package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/core/services"
	"github.com/reacthost/console/api/internal/telemetry"
)

// DeploymentWorker plays the fabricated build: it waits out the provisioning
// delay and streams the canned build log to the telemetry hub as it goes.
type DeploymentWorker struct {
	hub    *telemetry.Hub
	delay  time.Duration
	logger *slog.Logger
}

var _ services.Provisioner = (*DeploymentWorker)(nil)

func NewDeploymentWorker(hub *telemetry.Hub, delay time.Duration, logger *slog.Logger) *DeploymentWorker {
	return &DeploymentWorker{
		hub:    hub,
		delay:  delay,
		logger: logger,
	}
}

// Provision spaces the log lines evenly across the delay. Each line is
// broadcast when its slice of the delay has elapsed, so the last line lands
// exactly when the build "finishes".
func (w *DeploymentWorker) Provision(ctx context.Context, name string) error {
	lines := services.ProvisioningLog()
	tick := w.delay / time.Duration(len(lines))

	w.logger.Debug("Build started", slog.String("name", name), slog.Duration("delay", w.delay))

	for _, line := range lines {
		timer := time.NewTimer(tick)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.hub.Broadcast(telemetry.WizardTopic, domain.WizardEvent{
				Kind:    domain.EventLog,
				Phase:   domain.PhaseProvisioning,
				Message: "[Error] Build aborted",
				At:      time.Now(),
			})
			return ctx.Err()
		case <-timer.C:
		}

		w.hub.Broadcast(telemetry.WizardTopic, domain.WizardEvent{
			Kind:    domain.EventLog,
			Phase:   domain.PhaseProvisioning,
			Message: line,
			At:      time.Now(),
		})
	}
	return nil
}
