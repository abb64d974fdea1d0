package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/core/services"
	"github.com/reacthost/console/api/internal/telemetry"
)

type SetNameRequest struct {
	Name string `json:"name" validate:"max=63"`
}

type AdvanceResponse struct {
	Advanced bool               `json:"advanced"`
	State    domain.WizardState `json:"state"`
}

type WizardHandler struct {
	Simulator *services.DeploymentSimulator
	Hub       *telemetry.Hub
	Logger    *slog.Logger
}

func NewWizardHandler(sim *services.DeploymentSimulator, hub *telemetry.Hub, logger *slog.Logger) *WizardHandler {
	return &WizardHandler{Simulator: sim, Hub: hub, Logger: logger}
}

// State handles GET /api/v1/wizard
func (h *WizardHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Simulator.State())
}

// SetName handles PUT /api/v1/wizard/name
func (h *WizardHandler) SetName(w http.ResponseWriter, r *http.Request) {
	var req SetNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	state, err := h.Simulator.SetName(req.Name)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Next handles POST /api/v1/wizard/next. A blank name is not an error: the
// response reports advanced=false and the wizard stays on the naming step.
func (h *WizardHandler) Next(w http.ResponseWriter, r *http.Request) {
	advanced, err := h.Simulator.Advance()
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AdvanceResponse{Advanced: advanced, State: h.Simulator.State()})
}

// Back handles POST /api/v1/wizard/back
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	if err := h.Simulator.Back(); err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Simulator.State())
}

// Start handles POST /api/v1/wizard/start. It returns as soon as the build is
// running; progress arrives on the event streams.
func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Simulator.Start(r.Context()); err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.Simulator.State())
}

// Cancel handles POST /api/v1/wizard/cancel
func (h *WizardHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.Simulator.Cancel(); err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Simulator.State())
}

// Reset handles POST /api/v1/wizard/reset. It abandons the wizard, cancelling
// a running build, and returns to an empty naming step.
func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.Simulator.Reset()
	writeJSON(w, http.StatusOK, h.Simulator.State())
}

// Events handles GET /api/v1/wizard/events as a Server-Sent Events stream.
func (h *WizardHandler) Events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := h.Hub.Subscribe(telemetry.WizardTopic)
	defer h.Hub.Unsubscribe(telemetry.WizardTopic, events)

	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	initial, _ := json.Marshal(h.Simulator.State())
	fmt.Fprintf(w, "event: state\ndata: %s\n\n", initial)
	if err := rc.Flush(); err != nil {
		return
	}

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("Failed to encode wizard event", slog.Any("error", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
