package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProjectStatus is the lifecycle tag of a hosted project.
// Only Building and Deployed are produced by the wizard today; the rest are
// reserved for transitions that do not exist yet.
type ProjectStatus string

const (
	StatusReady       ProjectStatus = "Ready"
	StatusBuilding    ProjectStatus = "Building"
	StatusDeployed    ProjectStatus = "Deployed"
	StatusBuildFailed ProjectStatus = "Build Failed"
	StatusStopped     ProjectStatus = "Stopped"
)

// Framework is the runtime tag shown on a project card.
type Framework string

const (
	FrameworkReact  Framework = "React"
	FrameworkVite   Framework = "Vite"
	FrameworkStatic Framework = "Static"
	FrameworkNode   Framework = "Node"
	FrameworkPython Framework = "Python"
)

// DefaultDomain is the apex every project subdomain hangs off.
const DefaultDomain = "reacthost.ai"

// SnapshotKey is the fixed namespace the project collection is stored under.
const SnapshotKey = "rh_projects"

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrSnapshotNotFound     = errors.New("snapshot not found")
	ErrNameRequired         = errors.New("project name is required")
	ErrInvalidPhase         = errors.New("wizard is not in the required phase")
	ErrProvisioningInFlight = errors.New("provisioning already in progress")
	ErrEnvVarInvalid        = errors.New("environment variable key and value are required")
)

// Metrics are cosmetic numbers rendered on the dashboard. Nothing measures them.
type Metrics struct {
	CPU      string `json:"cpu" yaml:"cpu" validate:"required"`
	RAM      string `json:"ram" yaml:"ram" validate:"required"`
	Requests int    `json:"requests" yaml:"requests" validate:"gte=0"`
}

// EnvVar is a single key/value owned by exactly one Project.
type EnvVar struct {
	ID    string `json:"id" yaml:"id" validate:"required"`
	Key   string `json:"key" yaml:"key" validate:"required"`
	Value string `json:"value" yaml:"value"`
}

// Project is the root persisted entity. The JSON shape is the snapshot format.
type Project struct {
	ID         string        `json:"id" yaml:"id" validate:"required"`
	Name       string        `json:"name" yaml:"name" validate:"required"`
	Status     ProjectStatus `json:"status" yaml:"status" validate:"required,oneof=Ready Building Deployed 'Build Failed' Stopped"`
	URL        string        `json:"url" yaml:"url" validate:"required"`
	DeployURL  string        `json:"deploymentUrl,omitempty" yaml:"deploymentUrl,omitempty"`
	CreatedAt  time.Time     `json:"createdAt" yaml:"createdAt" validate:"required"`
	Framework  Framework     `json:"framework" yaml:"framework" validate:"required,oneof=React Vite Static Node Python"`
	Logs       []string      `json:"logs" yaml:"logs" validate:"required"`
	Metrics    Metrics       `json:"metrics" yaml:"metrics"`
	Env        []EnvVar      `json:"env" yaml:"env" validate:"required,dive"`
	FilesCount int           `json:"filesCount" yaml:"filesCount" validate:"gte=0"`
}

// Context is the slice of a Project the advice service is allowed to see.
func (p Project) Context() *ProjectContext {
	return &ProjectContext{Name: p.Name, Framework: p.Framework, Status: p.Status}
}

// Clone returns a deep copy so callers never share the store's slices.
func (p Project) Clone() Project {
	c := p
	c.Logs = append([]string(nil), p.Logs...)
	c.Env = append([]EnvVar(nil), p.Env...)
	if c.Logs == nil {
		c.Logs = []string{}
	}
	if c.Env == nil {
		c.Env = []EnvVar{}
	}
	return c
}

// WithEnv returns a copy of the project carrying vars as its env.
func (p Project) WithEnv(vars []EnvVar) Project {
	c := p.Clone()
	c.Env = append([]EnvVar{}, vars...)
	return c
}

// ProjectContext is optional context forwarded with an advice query.
type ProjectContext struct {
	Name      string
	Framework Framework
	Status    ProjectStatus
}

// DeriveURL builds the public URL of a project from its name.
func DeriveURL(name, domain string) string {
	if domain == "" {
		domain = DefaultDomain
	}
	return fmt.Sprintf("https://%s.%s", strings.ToLower(name), domain)
}

// NormalizeEnvKey uppercases the key and replaces spaces with underscores.
// Uniqueness is not enforced anywhere.
func NormalizeEnvKey(key string) string {
	return strings.ReplaceAll(strings.ToUpper(key), " ", "_")
}

// SnapshotStore is the persistence port behind the project store. A backend
// holds opaque snapshot bytes under a key and replaces them whole on Save.
type SnapshotStore interface {
	// Load returns ErrSnapshotNotFound when nothing has been saved under key.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}
