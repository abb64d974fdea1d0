package services

import (
	"sync"

	"github.com/reacthost/console/api/internal/core/domain"
)

type Tab string

const (
	TabProjects Tab = "projects"
	TabSettings Tab = "settings"
)

// View is the dashboard's navigation state. It lives only in memory.
type View struct {
	ActiveTab         Tab    `json:"active_tab"`
	SelectedProjectID string `json:"selected_project_id"`
	DeployModalOpen   bool   `json:"deploy_modal_open"`
	AdviceOpen        bool   `json:"advice_open"`
}

// ViewPatch carries the fields a client wants to change. Nil means unchanged.
type ViewPatch struct {
	ActiveTab         *Tab    `json:"active_tab,omitempty" validate:"omitnil,oneof=projects settings"`
	SelectedProjectID *string `json:"selected_project_id,omitempty"`
	DeployModalOpen   *bool   `json:"deploy_modal_open,omitempty"`
	AdviceOpen        *bool   `json:"advice_open,omitempty"`
}

type ViewState struct {
	mu    sync.RWMutex
	view  View
	store *ProjectStore
}

func NewViewState(store *ProjectStore) *ViewState {
	return &ViewState{
		view:  View{ActiveTab: TabProjects},
		store: store,
	}
}

func (v *ViewState) Snapshot() View {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.view
}

// Apply updates the view. Switching to the projects tab returns to the list,
// so it clears the selection unless the same patch selects a project.
func (v *ViewState) Apply(patch ViewPatch) (View, error) {
	if err := validate.Struct(patch); err != nil {
		return View{}, err
	}
	if patch.SelectedProjectID != nil && *patch.SelectedProjectID != "" {
		if _, err := v.store.Get(*patch.SelectedProjectID); err != nil {
			return View{}, err
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if patch.ActiveTab != nil {
		v.view.ActiveTab = *patch.ActiveTab
		if *patch.ActiveTab == TabProjects {
			v.view.SelectedProjectID = ""
		}
	}
	if patch.SelectedProjectID != nil {
		v.view.SelectedProjectID = *patch.SelectedProjectID
	}
	if patch.DeployModalOpen != nil {
		v.view.DeployModalOpen = *patch.DeployModalOpen
	}
	if patch.AdviceOpen != nil {
		v.view.AdviceOpen = *patch.AdviceOpen
	}
	return v.view, nil
}

// SelectedProject returns the project in focus, if any still exists.
func (v *ViewState) SelectedProject() (domain.Project, bool) {
	v.mu.RLock()
	id := v.view.SelectedProjectID
	v.mu.RUnlock()

	if id == "" {
		return domain.Project{}, false
	}
	p, err := v.store.Get(id)
	return p, err == nil
}

// Forget drops the selection when it points at a removed project.
func (v *ViewState) Forget(projectID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.view.SelectedProjectID == projectID {
		v.view.SelectedProjectID = ""
	}
}

func (v *ViewState) CloseDeployModal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.view.DeployModalOpen = false
}
