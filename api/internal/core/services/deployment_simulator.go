package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/metrics"
	"github.com/reacthost/console/api/internal/telemetry"
)

// Provisioner performs the timed fabricated build. It returns ctx.Err() when
// cancelled before the build finished.
type Provisioner interface {
	Provision(ctx context.Context, name string) error
}

// Provisioning is the handle returned by Start.
type Provisioning struct {
	cancel  context.CancelFunc
	done    chan struct{}
	project domain.Project
	err     error
}

// Cancel aborts the build. It is a no-op once the build finished.
func (p *Provisioning) Cancel() { p.cancel() }

func (p *Provisioning) Done() <-chan struct{} { return p.done }

// Result blocks until the build finished and returns the created project.
func (p *Provisioning) Result() (domain.Project, error) {
	<-p.done
	return p.project, p.err
}

// DeploymentSimulator is the three-phase "new project" wizard.
type DeploymentSimulator struct {
	mu         sync.Mutex
	phase      domain.WizardPhase
	name       string
	projectID  string
	inflight   *Provisioning
	generation uint64

	store       *ProjectStore
	view        *ViewState
	provisioner Provisioner
	hub         *telemetry.Hub
	metrics     *metrics.Recorder
	resetDelay  time.Duration
	logger      *slog.Logger
}

func NewDeploymentSimulator(
	store *ProjectStore,
	view *ViewState,
	provisioner Provisioner,
	hub *telemetry.Hub,
	recorder *metrics.Recorder,
	resetDelay time.Duration,
	logger *slog.Logger,
) *DeploymentSimulator {
	return &DeploymentSimulator{
		phase:       domain.PhaseNaming,
		store:       store,
		view:        view,
		provisioner: provisioner,
		hub:         hub,
		metrics:     recorder,
		resetDelay:  resetDelay,
		logger:      logger,
	}
}

func (s *DeploymentSimulator) State() domain.WizardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *DeploymentSimulator) stateLocked() domain.WizardState {
	step := int(s.phase)
	if s.phase == domain.PhaseComplete {
		step = int(domain.PhaseProvisioning)
	}
	return domain.WizardState{
		Phase:      s.phase,
		Step:       step,
		Name:       s.name,
		CanAdvance: s.phase == domain.PhaseNaming && strings.TrimSpace(s.name) != "",
		Deploying:  s.phase == domain.PhaseProvisioning,
		ProjectID:  s.projectID,
	}
}

// SetName edits the project name. Only allowed while naming.
func (s *DeploymentSimulator) SetName(name string) (domain.WizardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseNaming {
		return s.stateLocked(), domain.ErrInvalidPhase
	}
	s.name = name
	return s.stateLocked(), nil
}

// Advance moves from naming to file selection. A blank name refuses the
// transition by returning false; it is not an error.
func (s *DeploymentSimulator) Advance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseNaming {
		return false, domain.ErrInvalidPhase
	}
	if strings.TrimSpace(s.name) == "" {
		return false, nil
	}
	s.setPhaseLocked(domain.PhaseFileSelect)
	return true, nil
}

// Back returns from file selection to naming, keeping the name.
func (s *DeploymentSimulator) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseFileSelect {
		return domain.ErrInvalidPhase
	}
	s.setPhaseLocked(domain.PhaseNaming)
	return nil
}

// Start launches provisioning. The build runs detached from ctx's deadline
// and is stopped only through the returned handle, Cancel or Shutdown.
func (s *DeploymentSimulator) Start(ctx context.Context) (*Provisioning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case domain.PhaseProvisioning:
		return nil, domain.ErrProvisioningInFlight
	case domain.PhaseFileSelect:
	default:
		return nil, domain.ErrInvalidPhase
	}
	name := strings.TrimSpace(s.name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &Provisioning{cancel: cancel, done: make(chan struct{})}
	s.inflight = p
	s.generation++
	s.setPhaseLocked(domain.PhaseProvisioning)

	s.logger.Info("Provisioning started", slog.String("name", name))
	go s.run(runCtx, p, name)
	return p, nil
}

func (s *DeploymentSimulator) run(ctx context.Context, p *Provisioning, name string) {
	defer close(p.done)
	defer p.cancel()

	if err := s.provisioner.Provision(ctx, name); err != nil {
		s.abort(p, err)
		return
	}

	project := s.store.NewDeployedProject(name)
	// The build is done; persisting it is not subject to cancellation.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.store.Append(saveCtx, project); err != nil {
		s.abort(p, err)
		return
	}

	s.mu.Lock()
	p.project = project
	s.inflight = nil
	s.projectID = project.ID
	s.phase = domain.PhaseComplete
	gen := s.generation
	s.mu.Unlock()

	s.metrics.Deployment("completed")
	s.hub.Broadcast(telemetry.WizardTopic, domain.WizardEvent{
		Kind:      domain.EventCompleted,
		Phase:     domain.PhaseComplete,
		Message:   "Launch Successful!",
		ProjectID: project.ID,
		At:        time.Now(),
	})
	s.logger.Info("Provisioning completed", slog.String("project_id", project.ID), slog.String("url", project.URL))

	time.AfterFunc(s.resetDelay, func() { s.resetAfterCompletion(gen) })
}

// abort returns the wizard to file selection with the name kept.
func (s *DeploymentSimulator) abort(p *Provisioning, cause error) {
	outcome := "failed"
	if errors.Is(cause, context.Canceled) {
		outcome = "cancelled"
		s.logger.Info("Provisioning cancelled")
	} else {
		s.logger.Error("Provisioning failed", slog.Any("error", cause))
	}

	s.mu.Lock()
	p.err = cause
	if s.inflight == p {
		s.inflight = nil
		s.phase = domain.PhaseFileSelect
	}
	s.mu.Unlock()

	s.metrics.Deployment(outcome)
	s.hub.Broadcast(telemetry.WizardTopic, domain.WizardEvent{
		Kind:    domain.EventCancelled,
		Phase:   domain.PhaseFileSelect,
		Message: outcome,
		At:      time.Now(),
	})
}

// Cancel stops an in-flight build. Once the build itself has finished the
// project is being saved and can no longer be withdrawn; Cancel then waits
// for the save and reports ErrInvalidPhase.
func (s *DeploymentSimulator) Cancel() error {
	s.mu.Lock()
	p := s.inflight
	s.mu.Unlock()

	if p == nil {
		return domain.ErrInvalidPhase
	}
	p.Cancel()
	<-p.done
	if p.err == nil {
		return domain.ErrInvalidPhase
	}
	return nil
}

func (s *DeploymentSimulator) resetAfterCompletion(gen uint64) {
	s.mu.Lock()
	if s.generation != gen || s.phase != domain.PhaseComplete {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.mu.Unlock()

	if s.view != nil {
		s.view.CloseDeployModal()
	}
}

// Reset abandons the wizard and returns to an empty naming phase. An
// in-flight build is cancelled first.
func (s *DeploymentSimulator) Reset() {
	s.mu.Lock()
	p := s.inflight
	s.mu.Unlock()
	if p != nil {
		p.Cancel()
		<-p.done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.resetLocked()
}

func (s *DeploymentSimulator) resetLocked() {
	s.name = ""
	s.projectID = ""
	s.phase = domain.PhaseNaming
	s.hub.Broadcast(telemetry.WizardTopic, domain.WizardEvent{
		Kind:  domain.EventReset,
		Phase: domain.PhaseNaming,
		At:    time.Now(),
	})
}

// Shutdown cancels any in-flight build and waits for it.
func (s *DeploymentSimulator) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	p := s.inflight
	s.mu.Unlock()
	if p == nil {
		return nil
	}

	p.Cancel()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DeploymentSimulator) setPhaseLocked(phase domain.WizardPhase) {
	s.phase = phase
	s.hub.Broadcast(telemetry.WizardTopic, domain.WizardEvent{
		Kind:  domain.EventPhase,
		Phase: phase,
		At:    time.Now(),
	})
}
