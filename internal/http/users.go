package httpapp

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alphabot-ai/newsboard/internal/model"
)

// handleListUsers godoc
//
//	@Summary	List users
//	@Tags		Users
//	@Produce	json
//	@Success	200	{object}	usersResponse
//	@Router		/api/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
	return nil
}

// handleGetUser godoc
//
//	@Summary		Get a user
//	@Description	Returns the user wrapped in a one-element array
//	@Tags			Users
//	@Produce		json
//	@Param			username	path		string	true	"Username"
//	@Success		200			{object}	userResponse
//	@Failure		404			{object}	errorResponse	"User not found"
//	@Router			/api/users/{username} [get]
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) error {
	user, err := s.store.GetUser(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, userResponse{User: []model.User{user}})
	return nil
}

type usersResponse struct {
	Users []model.User `json:"users"`
}

type userResponse struct {
	User []model.User `json:"user"`
}
