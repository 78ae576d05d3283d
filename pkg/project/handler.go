package project

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/treso/treso/pkg/ledger"
)

type ProjectDTO struct {
	Uid             string     `json:"uid"`
	Name            string     `json:"name"`
	Year            int        `json:"year"`
	BudgetOccupied  int64      `json:"budgetOccupied"`
	BudgetExecuted  int64      `json:"budgetExecuted"`
	BudgetRemaining int64      `json:"budgetRemaining"`
	OwnerId         int        `json:"ownerId"`
	GroupId         int        `json:"groupId"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
}

type Handler struct {
	projectService Service
	ledgerService  ledger.Service
}

func NewHandler(projectService Service, ledgerService ledger.Service) *Handler {
	return &Handler{projectService: projectService, ledgerService: ledgerService}
}

func (handler *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	projects, err := handler.projectService.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, ProjectToDTO(p))
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	p, err := handler.projectService.GetByUid(r.Context(), vars["projectUid"])
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dto := ProjectToDTO(p)
	// remaining as seen by the ledger includes adjustments, which the stored
	// executed amount does not cover
	remaining, err := handler.ledgerService.Remaining(r.Context(), p.Id)
	if err == nil {
		dto.BudgetRemaining = remaining
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func ProjectToDTO(p Project) ProjectDTO {
	var approvedAt *time.Time
	if !p.ApprovedAt.IsZero() {
		approvedAt = &p.ApprovedAt
	}
	return ProjectDTO{
		Uid:             p.Uid,
		Name:            p.Name,
		Year:            p.Year,
		BudgetOccupied:  p.BudgetOccupied,
		BudgetExecuted:  p.BudgetExecuted,
		BudgetRemaining: p.Remaining(),
		OwnerId:         p.OwnerId,
		GroupId:         p.GroupId,
		Status:          string(p.Status),
		CreatedAt:       p.CreatedAt,
		ApprovedAt:      approvedAt,
	}
}
