package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/treso/treso/pkg/directory"
	"github.com/treso/treso/pkg/ledger"
	"github.com/treso/treso/pkg/project"
)

type ProjectTransferDTO struct {
	Uid         string    `json:"uid,omitempty"`
	ProjectUid  string    `json:"projectUid,omitempty"`
	FromUserId  int       `json:"fromUserId,omitempty"`
	FromGroupId int       `json:"fromGroupId,omitempty"`
	ToUserId    int       `json:"toUserId"`
	ToGroupId   int       `json:"toGroupId"`
	Kind        string    `json:"kind"`
	Amount      int64     `json:"amount,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Status      string    `json:"status,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	ApprovedAt  time.Time `json:"approvedAt,omitzero"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
}

type ReviewDTO struct {
	Notes string `json:"notes,omitempty"`
}

type Handler struct {
	transferService Service
	projectService  project.Service
}

func NewHandler(transferService Service, projectService project.Service) *Handler {
	return &Handler{transferService: transferService, projectService: projectService}
}

func (handler *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
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

	var dto ProjectTransferDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := handler.transferService.Initiate(r.Context(), ProjectTransfer{
		ProjectId: p.Id,
		ToUserId:  dto.ToUserId,
		ToGroupId: dto.ToGroupId,
		Kind:      Kind(dto.Kind),
		Amount:    dto.Amount,
		Reason:    dto.Reason,
	})
	if err != nil {
		writeTransferError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(TransferToDTO(created, p.Uid)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	handler.review(w, r, handler.transferService.Approve)
}

func (handler *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	handler.review(w, r, handler.transferService.Reject)
}

func (handler *Handler) review(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, uid string, notes string) (ProjectTransfer, error)) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	var dto ReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	decided, err := decide(r.Context(), vars["transferUid"], dto.Notes)
	if err != nil {
		writeTransferError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(TransferToDTO(decided, "")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	t, err := handler.transferService.GetByUid(r.Context(), vars["transferUid"])
	if err != nil {
		writeTransferError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(TransferToDTO(t, "")); err != nil {
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

	transfers, err := handler.transferService.ListForProject(r.Context(), p.Id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]ProjectTransferDTO, 0, len(transfers))
	for _, t := range transfers {
		dtos = append(dtos, TransferToDTO(t, p.Uid))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func writeTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTransferNotFound):
		http.Error(w, "Transfer not found", http.StatusNotFound)
	case errors.Is(err, project.ErrProjectNotFound):
		http.Error(w, "Project not found", http.StatusNotFound)
	case errors.Is(err, directory.ErrUserNotFound) || errors.Is(err, directory.ErrGroupNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrAlreadyProcessed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnknownTransferType) || errors.Is(err, ledger.ErrBudgetExceeded):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func TransferToDTO(t ProjectTransfer, projectUid string) ProjectTransferDTO {
	return ProjectTransferDTO{
		Uid:         t.Uid,
		ProjectUid:  projectUid,
		FromUserId:  t.FromUserId,
		FromGroupId: t.FromGroupId,
		ToUserId:    t.ToUserId,
		ToGroupId:   t.ToGroupId,
		Kind:        string(t.Kind),
		Amount:      t.Amount,
		Reason:      t.Reason,
		Status:      string(t.Status),
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
		ApprovedAt:  t.ApprovedAt,
		CompletedAt: t.CompletedAt,
	}
}
