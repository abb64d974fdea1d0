package domain

import (
	"fmt"
	"time"
)

// WizardPhase is the step of the "new project" flow.
type WizardPhase int

const (
	PhaseNaming       WizardPhase = 1
	PhaseFileSelect   WizardPhase = 2
	PhaseProvisioning WizardPhase = 3
	PhaseComplete     WizardPhase = 4
)

func (p WizardPhase) String() string {
	switch p {
	case PhaseNaming:
		return "naming"
	case PhaseFileSelect:
		return "file_select"
	case PhaseProvisioning:
		return "provisioning"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText lets the phase travel as its name in JSON payloads.
func (p WizardPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *WizardPhase) UnmarshalText(text []byte) error {
	for _, candidate := range []WizardPhase{PhaseNaming, PhaseFileSelect, PhaseProvisioning, PhaseComplete} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown wizard phase %q", text)
}

// WizardState is a point-in-time view of the wizard.
type WizardState struct {
	Phase      WizardPhase `json:"phase"`
	Step       int         `json:"step"`
	Name       string      `json:"name"`
	CanAdvance bool        `json:"can_advance"`
	Deploying  bool        `json:"deploying"`
	ProjectID  string      `json:"project_id,omitempty"`
}

// Wizard event kinds published on the telemetry hub.
const (
	EventPhase     = "phase"
	EventLog       = "log"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
	EventReset     = "reset"
)

// WizardEvent is one message on the wizard stream.
type WizardEvent struct {
	Kind      string      `json:"kind"`
	Phase     WizardPhase `json:"phase"`
	Message   string      `json:"message,omitempty"`
	ProjectID string      `json:"project_id,omitempty"`
	At        time.Time   `json:"at"`
}
