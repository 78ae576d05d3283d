package approval

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/treso/treso/pkg/directory"
	"github.com/treso/treso/pkg/execution"
	"github.com/treso/treso/pkg/ledger"
	"github.com/treso/treso/pkg/project"
	"github.com/treso/treso/pkg/request"
)

type SubmitDTO struct {
	Kind     string          `json:"kind"`
	GroupUid string          `json:"groupUid"`
	Payload  json.RawMessage `json:"payload"`
}

type ReviewDTO struct {
	Action string `json:"action"`
	Notes  string `json:"notes,omitempty"`
}

type ApprovalRequestDTO struct {
	Uid         string          `json:"uid"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	RequesterId int             `json:"requesterId"`
	ApproverId  int             `json:"approverId"`
	GroupId     int             `json:"groupId"`
	Status      string          `json:"status"`
	SubmittedAt time.Time       `json:"submittedAt"`
	ReviewedAt  *time.Time      `json:"reviewedAt,omitempty"`
	ReviewNotes string          `json:"reviewNotes,omitempty"`
}

// SubmitResponseDTO is either the created pending request or, on the
// self-authority path, the entity the request produced.
type SubmitResponseDTO struct {
	Executed  bool                          `json:"executed"`
	Request   *ApprovalRequestDTO           `json:"request,omitempty"`
	Project   *project.ProjectDTO           `json:"project,omitempty"`
	Execution *execution.ExecutionRecordDTO `json:"execution,omitempty"`
}

type Handler struct {
	approvalService  Service
	directoryService directory.Service
}

func NewHandler(approvalService Service, directoryService directory.Service) *Handler {
	return &Handler{approvalService: approvalService, directoryService: directoryService}
}

func (handler *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var dto SubmitDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	group, err := handler.directoryService.GetGroupByUid(r.Context(), dto.GroupUid)
	if err != nil {
		if errors.Is(err, directory.ErrGroupNotFound) {
			http.Error(w, "Group not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload, err := request.DecodePayload(request.Kind(dto.Kind), dto.Payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := handler.approvalService.Submit(r.Context(), group.Id, payload)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	response := SubmitResponseDTO{Executed: result.Executed}
	if result.Request != nil {
		dto := RequestToDTO(*result.Request)
		response.Request = &dto
	}
	if result.Result.Project != nil {
		dto := project.ProjectToDTO(*result.Result.Project)
		response.Project = &dto
	}
	if result.Result.Execution != nil {
		dto := execution.RecordToDTO(*result.Result.Execution, "")
		response.Execution = &dto
	}

	status := http.StatusCreated
	if result.Executed {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Review(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	var dto ReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	action := ReviewAction(dto.Action)
	if action != ActionApprove && action != ActionReject {
		http.Error(w, "action must be approve or reject", http.StatusBadRequest)
		return
	}

	reviewed, err := handler.approvalService.Review(r.Context(), vars["requestUid"], action, dto.Notes)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(RequestToDTO(reviewed)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	req, err := handler.approvalService.GetByUid(r.Context(), vars["requestUid"])
	if err != nil {
		writeRequestError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(RequestToDTO(req)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	requests, err := handler.approvalService.ListForCurrentApprover(r.Context())
	if err != nil {
		writeRequestError(w, err)
		return
	}

	dtos := make([]ApprovalRequestDTO, 0, len(requests))
	for _, req := range requests {
		dtos = append(dtos, RequestToDTO(req))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func writeRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRequestNotFound):
		http.Error(w, "Approval request not found", http.StatusNotFound)
	case errors.Is(err, project.ErrProjectNotFound):
		http.Error(w, "Project not found", http.StatusNotFound)
	case errors.Is(err, execution.ErrRecordNotFound):
		http.Error(w, "Execution record not found", http.StatusNotFound)
	case errors.Is(err, directory.ErrUserNotFound) || errors.Is(err, directory.ErrGroupNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrAlreadyReviewed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, request.ErrUnknownRequestKind) || errors.Is(err, ledger.ErrBudgetExceeded):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func RequestToDTO(req ApprovalRequest) ApprovalRequestDTO {
	var reviewedAt *time.Time
	if !req.ReviewedAt.IsZero() {
		reviewedAt = &req.ReviewedAt
	}
	return ApprovalRequestDTO{
		Uid:         req.Uid,
		Kind:        string(req.Kind),
		Payload:     req.Payload,
		RequesterId: req.RequesterId,
		ApproverId:  req.ApproverId,
		GroupId:     req.GroupId,
		Status:      string(req.Status),
		SubmittedAt: req.SubmittedAt,
		ReviewedAt:  reviewedAt,
		ReviewNotes: req.ReviewNotes,
	}
}
