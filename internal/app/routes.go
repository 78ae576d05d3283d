package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Projects
	r.HandleFunc("/api/project", deps.ProjectHandler.List).Methods("GET")
	r.HandleFunc("/api/project/{projectUid}", deps.ProjectHandler.Get).Methods("GET")

	// Execution records
	r.HandleFunc("/api/project/{projectUid}/execution", deps.ExecutionHandler.Register).Methods("POST")
	r.HandleFunc("/api/project/{projectUid}/execution", deps.ExecutionHandler.ListForProject).Methods("GET")
	r.HandleFunc("/api/execution/{executionUid}", deps.ExecutionHandler.Update).Methods("PUT")
	r.HandleFunc("/api/execution/{executionUid}", deps.ExecutionHandler.Delete).Methods("DELETE")

	// Budget adjustments
	r.HandleFunc("/api/project/{projectUid}/adjustment", deps.AdjustmentHandler.Register).Methods("POST")
	r.HandleFunc("/api/project/{projectUid}/adjustment", deps.AdjustmentHandler.ListForProject).Methods("GET")

	// Approval requests
	r.HandleFunc("/api/request", deps.ApprovalHandler.Submit).Methods("POST")
	r.HandleFunc("/api/request", deps.ApprovalHandler.ListPending).Methods("GET")
	r.HandleFunc("/api/request/{requestUid}", deps.ApprovalHandler.Get).Methods("GET")
	r.HandleFunc("/api/request/{requestUid}/review", deps.ApprovalHandler.Review).Methods("POST")

	// Project transfers
	r.HandleFunc("/api/project/{projectUid}/transfer", deps.TransferHandler.Initiate).Methods("POST")
	r.HandleFunc("/api/project/{projectUid}/transfer", deps.TransferHandler.ListForProject).Methods("GET")
	r.HandleFunc("/api/transfer/{transferUid}", deps.TransferHandler.Get).Methods("GET")
	r.HandleFunc("/api/transfer/{transferUid}/approve", deps.TransferHandler.Approve).Methods("POST")
	r.HandleFunc("/api/transfer/{transferUid}/reject", deps.TransferHandler.Reject).Methods("POST")

	// Directory
	r.HandleFunc("/api/user/current", deps.DirectoryHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/group/{groupUid}", deps.DirectoryHandler.GetGroup).Methods("GET")
}
