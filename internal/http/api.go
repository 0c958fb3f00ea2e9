package httpapp

import (
	_ "embed"
	"encoding/json"
	"net/http"
)

//go:embed endpoints.json
var endpointsJSON []byte

// handleGetEndpoints godoc
//
//	@Summary		Describe the API
//	@Description	Serves a description of every endpoint with example requests and responses
//	@Tags			Meta
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Router			/api [get]
func (s *Server) handleGetEndpoints(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"endpoints": endpointsJSON})
	return nil
}
