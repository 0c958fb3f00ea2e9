package httpapp

import (
	"net/http"

	"github.com/alphabot-ai/newsboard/internal/model"
)

// handleListTopics godoc
//
//	@Summary		List topics
//	@Description	Get every topic
//	@Tags			Topics
//	@Produce		json
//	@Success		200	{object}	topicsResponse
//	@Router			/api/topics [get]
func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) error {
	topics, err := s.store.ListTopics(r.Context())
	if err != nil {
		return err
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: topics})
	return nil
}

// handleCreateTopic godoc
//
//	@Summary		Create a topic
//	@Tags			Topics
//	@Accept			json
//	@Produce		json
//	@Param			topic	body		model.NewTopic	true	"Topic"
//	@Success		201		{object}	topicResponse
//	@Failure		400		{object}	errorResponse	"Incomplete entry"
//	@Failure		409		{object}	errorResponse	"Slug already exists"
//	@Router			/api/topics [post]
func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) error {
	var req model.NewTopic
	if err := readJSON(r.Body, &req); err != nil {
		return err
	}
	topic, err := s.store.CreateTopic(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, topicResponse{Topic: topic})
	return nil
}

type topicsResponse struct {
	Topics []model.Topic `json:"topics"`
}

type topicResponse struct {
	Topic model.Topic `json:"topic"`
}
