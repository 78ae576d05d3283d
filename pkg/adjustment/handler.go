package adjustment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/treso/treso/pkg/ledger"
	"github.com/treso/treso/pkg/project"
)

type BudgetAdjustmentDTO struct {
	Uid              string `json:"uid,omitempty"`
	Amount           int64  `json:"amount"`
	TargetCategory   string `json:"targetCategory"`
	TargetProject    string `json:"targetProject"`
	TargetSubProject string `json:"targetSubProject,omitempty"`
	TargetOwner      string `json:"targetOwner"`
	Reason           string `json:"reason,omitempty"`
	CreatedBy        int    `json:"createdBy,omitempty"`
}

type Handler struct {
	adjustmentService Service
	projectService    project.Service
}

func NewHandler(adjustmentService Service, projectService project.Service) *Handler {
	return &Handler{adjustmentService: adjustmentService, projectService: projectService}
}

func (handler *Handler) Register(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	p, err := handler.projectService.GetByUid(r.Context(), vars["projectUid"])
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var dto BudgetAdjustmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := handler.adjustmentService.Create(r.Context(), BudgetAdjustment{
		ProjectId:        p.Id,
		Amount:           dto.Amount,
		TargetCategory:   dto.TargetCategory,
		TargetProject:    dto.TargetProject,
		TargetSubProject: dto.TargetSubProject,
		TargetOwner:      dto.TargetOwner,
		Reason:           dto.Reason,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrBudgetExceeded) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(AdjustmentToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) ListForProject(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	p, err := handler.projectService.GetByUid(r.Context(), vars["projectUid"])
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	adjustments, err := handler.adjustmentService.ListForProject(r.Context(), p.Id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]BudgetAdjustmentDTO, 0, len(adjustments))
	for _, a := range adjustments {
		dtos = append(dtos, AdjustmentToDTO(a))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func AdjustmentToDTO(a BudgetAdjustment) BudgetAdjustmentDTO {
	return BudgetAdjustmentDTO{
		Uid:              a.Uid,
		Amount:           a.Amount,
		TargetCategory:   a.TargetCategory,
		TargetProject:    a.TargetProject,
		TargetSubProject: a.TargetSubProject,
		TargetOwner:      a.TargetOwner,
		Reason:           a.Reason,
		CreatedBy:        a.CreatedBy,
	}
}
