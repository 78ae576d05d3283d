package execution

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/treso/treso/pkg/ledger"
	"github.com/treso/treso/pkg/project"
)

type ExecutionRecordDTO struct {
	Uid           string    `json:"uid,omitempty"`
	ProjectUid    string    `json:"projectUid,omitempty"`
	Amount        int64     `json:"amount"`
	Date          time.Time `json:"date,omitzero"`
	Justification string    `json:"justification,omitempty"`
	VoucherRef    string    `json:"voucherRef,omitempty"`
	CreatedBy     int       `json:"createdBy,omitempty"`
}

type Handler struct {
	executionService Service
	projectService   project.Service
}

func NewHandler(executionService Service, projectService project.Service) *Handler {
	return &Handler{executionService: executionService, projectService: projectService}
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

	var dto ExecutionRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record := ExecutionRecord{
		ProjectId:     p.Id,
		Amount:        dto.Amount,
		Date:          dto.Date,
		Justification: dto.Justification,
		VoucherRef:    dto.VoucherRef,
	}
	created, err := handler.executionService.Create(r.Context(), record)
	if err != nil {
		if errors.Is(err, ledger.ErrBudgetExceeded) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(RecordToDTO(created, p.Uid)); err != nil {
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

	records, err := handler.executionService.ListForProject(r.Context(), p.Id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]ExecutionRecordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, RecordToDTO(rec, p.Uid))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	var dto ExecutionRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record := ExecutionRecord{
		Uid:           vars["executionUid"],
		Amount:        dto.Amount,
		Date:          dto.Date,
		Justification: dto.Justification,
		VoucherRef:    dto.VoucherRef,
	}
	updated, err := handler.executionService.Update(r.Context(), record)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "Execution record not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ledger.ErrBudgetExceeded) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(RecordToDTO(updated, dto.ProjectUid)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := handler.executionService.Delete(r.Context(), vars["executionUid"]); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "Execution record not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func RecordToDTO(record ExecutionRecord, projectUid string) ExecutionRecordDTO {
	return ExecutionRecordDTO{
		Uid:           record.Uid,
		ProjectUid:    projectUid,
		Amount:        record.Amount,
		Date:          record.Date,
		Justification: record.Justification,
		VoucherRef:    record.VoucherRef,
		CreatedBy:     record.CreatedBy,
	}
}
