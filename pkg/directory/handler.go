package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

type UserDTO struct {
	Uid         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role,omitempty"`
	Active      bool   `json:"active"`
}

type GroupDTO struct {
	Uid       string `json:"uid"`
	Name      string `json:"name"`
	PMUserId  int    `json:"pmUserId"`
	MemberIds []int  `json:"memberIds"`
}

type Handler struct {
	directoryService Service
}

func NewHandler(directoryService Service) *Handler {
	return &Handler{directoryService: directoryService}
}

// CurrentUser returns the actor resolved by the authentication middleware.
func (handler *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	user, err := CurrentActor(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(UserToDTO(user)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)

	group, err := handler.directoryService.GetGroupByUid(r.Context(), vars["groupUid"])
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			http.Error(w, "Group not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(GroupToDTO(group)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func UserToDTO(user User) UserDTO {
	return UserDTO{
		Uid:         user.Uid,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Active:      user.Active,
	}
}

func GroupToDTO(group Group) GroupDTO {
	return GroupDTO{
		Uid:       group.Uid,
		Name:      group.Name,
		PMUserId:  group.PMUserId,
		MemberIds: group.MemberIds,
	}
}
