package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/reacthost/console/api/internal/core/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ProjectStore is the authoritative in-memory project collection. Every
// mutation writes a full snapshot through the SnapshotStore port and is only
// committed in memory once that write succeeded.
type ProjectStore struct {
	mu        sync.Mutex
	projects  []domain.Project
	snapshots domain.SnapshotStore
	envVars   *EnvVarService
	seed      *Seed
	domain    string
	logger    *slog.Logger
	now       func() time.Time
}

func NewProjectStore(
	snapshots domain.SnapshotStore,
	envVars *EnvVarService,
	seed *Seed,
	hostingDomain string,
	logger *slog.Logger,
) *ProjectStore {
	if envVars == nil {
		envVars = NewEnvVarService(nil, logger)
	}
	return &ProjectStore{
		snapshots: snapshots,
		envVars:   envVars,
		seed:      seed,
		domain:    hostingDomain,
		logger:    logger,
		now:       time.Now,
	}
}

// ==============================================================================
// Persistence
// ==============================================================================

// Load hydrates the store from the snapshot backend. A missing, empty or
// malformed snapshot yields the seed set, which is then written back. Only a
// backend I/O failure is returned as an error.
func (s *ProjectStore) Load(ctx context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.snapshots.Load(ctx, domain.SnapshotKey)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		s.logger.Info("No project snapshot found, using seed set")
		raw = nil
	case err != nil:
		return nil, fmt.Errorf("failed to read project snapshot: %w", err)
	}

	projects, decodeErr := s.decode(ctx, raw)
	if decodeErr != nil || len(projects) == 0 {
		if decodeErr != nil {
			s.logger.Warn("Discarding unreadable project snapshot", slog.Any("error", decodeErr))
		}
		projects = s.seed.Projects(s.now())
		if err := s.persist(ctx, projects); err != nil {
			s.logger.Error("Failed to persist seed set", slog.Any("error", err))
		}
	}

	s.projects = projects
	return cloneAll(projects), nil
}

// Save replaces the whole collection. Anything Load would reject is refused
// here, so a stored snapshot always reads back in full.
func (s *ProjectStore) Save(ctx context.Context, projects []domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkCollection(projects); err != nil {
		return err
	}
	return s.commit(ctx, cloneAll(projects))
}

// commit persists next and swaps it in. Caller holds mu.
func (s *ProjectStore) commit(ctx context.Context, next []domain.Project) error {
	if err := s.persist(ctx, next); err != nil {
		s.logger.Error("Failed to persist project snapshot", slog.Any("error", err))
		return err
	}
	s.projects = next
	return nil
}

func (s *ProjectStore) persist(ctx context.Context, projects []domain.Project) error {
	data, err := s.encode(ctx, projects)
	if err != nil {
		return err
	}
	if err := s.snapshots.Save(ctx, domain.SnapshotKey, data); err != nil {
		return fmt.Errorf("failed to write project snapshot: %w", err)
	}
	return nil
}

func (s *ProjectStore) encode(ctx context.Context, projects []domain.Project) ([]byte, error) {
	out := make([]domain.Project, len(projects))
	for i, p := range projects {
		sealed, err := s.envVars.Seal(ctx, p.ID, p.Env)
		if err != nil {
			return nil, err
		}
		out[i] = p.WithEnv(sealed)
	}
	return json.Marshal(out)
}

// decode rejects anything that is not a complete, valid snapshot. There is
// no partial hydration.
func (s *ProjectStore) decode(ctx context.Context, raw []byte) ([]domain.Project, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var projects []domain.Project
	if err := dec.Decode(&projects); err != nil {
		return nil, fmt.Errorf("malformed snapshot: %w", err)
	}
	if err := checkCollection(projects); err != nil {
		return nil, err
	}

	for i, p := range projects {
		opened, err := s.envVars.Open(ctx, p.ID, p.Env)
		if err != nil {
			return nil, err
		}
		projects[i] = p.WithEnv(opened)
	}
	return projects, nil
}

// checkCollection applies the snapshot invariants shared by Save and decode.
func checkCollection(projects []domain.Project) error {
	if err := uniqueIDs(projects); err != nil {
		return err
	}
	for i, p := range projects {
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("invalid project at index %d: %w", i, err)
		}
	}
	return nil
}

// ==============================================================================
// Queries
// ==============================================================================

// List returns the collection newest first.
func (s *ProjectStore) List() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.projects)
}

func (s *ProjectStore) Get(id string) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.projects[i].Clone(), nil
	}
	return domain.Project{}, domain.ErrProjectNotFound
}

func (s *ProjectStore) indexOf(id string) int {
	for i, p := range s.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ==============================================================================
// Mutations
// ==============================================================================

// Append inserts p at the head of the collection.
func (s *ProjectStore) Append(ctx context.Context, p domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validate.Struct(p); err != nil {
		return err
	}
	if s.indexOf(p.ID) >= 0 {
		return fmt.Errorf("project %s already exists", p.ID)
	}

	next := make([]domain.Project, 0, len(s.projects)+1)
	next = append(next, p.Clone())
	next = append(next, s.projects...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.logger.Info("Project created", slog.String("project_id", p.ID), slog.String("name", p.Name))
	return nil
}

// Remove drops the project with id. Unknown ids are a no-op.
func (s *ProjectStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}

	next := make([]domain.Project, 0, len(s.projects)-1)
	next = append(next, s.projects[:i]...)
	next = append(next, s.projects[i+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	s.logger.Info("Project deleted", slog.String("project_id", id))
	return nil
}

// UpdateEnv replaces the env list of one project and returns the new value.
func (s *ProjectStore) UpdateEnv(ctx context.Context, projectID string, vars []domain.EnvVar) (domain.Project, error) {
	normalized, err := s.envVars.Normalize(vars)
	if err != nil {
		return domain.Project{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceEnv(ctx, projectID, func([]domain.EnvVar) []domain.EnvVar { return normalized })
}

// AddEnvVar appends one variable. Duplicate keys are permitted.
func (s *ProjectStore) AddEnvVar(ctx context.Context, projectID, key, value string) (domain.EnvVar, error) {
	v, err := s.envVars.NewVar(key, value)
	if err != nil {
		return domain.EnvVar{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.replaceEnv(ctx, projectID, func(cur []domain.EnvVar) []domain.EnvVar {
		return append(cur, v)
	})
	if err != nil {
		return domain.EnvVar{}, err
	}
	return v, nil
}

// RemoveEnvVar drops one variable by id. Unknown ids leave the list unchanged.
func (s *ProjectStore) RemoveEnvVar(ctx context.Context, projectID, envID string) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceEnv(ctx, projectID, func(cur []domain.EnvVar) []domain.EnvVar {
		kept := make([]domain.EnvVar, 0, len(cur))
		for _, v := range cur {
			if v.ID != envID {
				kept = append(kept, v)
			}
		}
		return kept
	})
}

// replaceEnv reconciles a new project value by id. Caller holds mu.
func (s *ProjectStore) replaceEnv(ctx context.Context, projectID string, update func([]domain.EnvVar) []domain.EnvVar) (domain.Project, error) {
	i := s.indexOf(projectID)
	if i < 0 {
		return domain.Project{}, domain.ErrProjectNotFound
	}

	current := s.projects[i].Clone()
	updated := current.WithEnv(update(current.Env))

	next := cloneAll(s.projects)
	next[i] = updated
	if err := s.commit(ctx, next); err != nil {
		return domain.Project{}, err
	}

	s.logger.Info("Environment updated", slog.String("project_id", projectID), slog.Int("vars", len(updated.Env)))
	return updated.Clone(), nil
}

// NewDeployedProject fabricates the record produced by a finished wizard.
func (s *ProjectStore) NewDeployedProject(name string) domain.Project {
	name = strings.TrimSpace(name)
	return domain.Project{
		ID:         uuid.NewString(),
		Name:       name,
		Status:     domain.StatusDeployed,
		URL:        domain.DeriveURL(name, s.domain),
		CreatedAt:  s.now(),
		Framework:  domain.FrameworkReact,
		Logs:       ProvisioningLog(),
		Metrics:    domain.Metrics{CPU: "0.1%", RAM: "48MB", Requests: 0},
		Env:        []domain.EnvVar{},
		FilesCount: 15,
	}
}

// ProvisioningLog is the canned build output of every simulated deployment.
func ProvisioningLog() []string {
	return []string{
		"[System] Booting node...",
		"[Build] Running npm run build",
		"[Success] Deployed to Global Edge",
	}
}

func cloneAll(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, len(projects))
	for i, p := range projects {
		out[i] = p.Clone()
	}
	return out
}
