package services

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reacthost/console/api/internal/core/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the fallback collection used when no usable snapshot exists.
type Seed struct {
	projects []domain.Project
}

// LoadSeed parses the YAML at path, or the embedded default when path is empty.
func LoadSeed(path string) (*Seed, error) {
	raw := defaultSeed
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		raw = data
	}

	var projects []domain.Project
	if err := yaml.Unmarshal(raw, &projects); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if len(projects) == 0 {
		return nil, errors.New("seed must contain at least one project")
	}

	stamp := time.Now()
	for i := range projects {
		projects[i] = projects[i].Clone()
		check := projects[i]
		if check.CreatedAt.IsZero() {
			check.CreatedAt = stamp
		}
		if err := validate.Struct(check); err != nil {
			return nil, fmt.Errorf("seed project %q: %w", check.ID, err)
		}
	}
	if err := uniqueIDs(projects); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return &Seed{projects: projects}, nil
}

// Projects returns a fresh copy stamped with now where the seed has no date.
func (s *Seed) Projects(now time.Time) []domain.Project {
	out := make([]domain.Project, len(s.projects))
	for i, p := range s.projects {
		c := p.Clone()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		out[i] = c
	}
	return out
}

func uniqueIDs(projects []domain.Project) error {
	seen := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate project id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
