package httpapp

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/alphabot-ai/newsboard/internal/model"
)

// handleListComments godoc
//
//	@Summary		List an article's comments
//	@Description	Comments in ascending created_at order; an existing article with no comments yields an empty array
//	@Tags			Comments
//	@Produce		json
//	@Param			article_id	path		int	true	"Article ID"
//	@Param			limit		query		int	false	"Page size"	default(10)
//	@Param			p			query		int	false	"Zero-based page number"	default(0)
//	@Success		200			{object}	commentsResponse
//	@Failure		400			{object}	errorResponse	"Bad id or paging value"
//	@Failure		404			{object}	errorResponse	"Article not found"
//	@Router			/api/articles/{article_id}/comments [get]
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "article_id")
	if err != nil {
		return err
	}
	page, err := pageOpts(r)
	if err != nil {
		return err
	}

	var (
		comments  []model.Comment
		existsErr error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		comments, err = s.store.ListCommentsByArticle(ctx, id, page)
		return err
	})
	g.Go(func() error {
		existsErr = s.store.ArticleExists(ctx, id)
		return existsErr
	})
	listErr := g.Wait()

	// A missing article outranks whatever the listing returned.
	if existsErr != nil && !errors.Is(existsErr, context.Canceled) {
		return existsErr
	}
	if listErr != nil {
		return listErr
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, commentsResponse{Comments: comments})
	return nil
}

// handleCreateComment godoc
//
//	@Summary	Comment on an article
//	@Tags		Comments
//	@Accept		json
//	@Produce	json
//	@Param		article_id	path		int					true	"Article ID"
//	@Param		comment		body		model.NewComment	true	"Comment"
//	@Success	201			{object}	commentResponse
//	@Failure	400			{object}	errorResponse	"Bad id or incomplete entry"
//	@Failure	404			{object}	errorResponse	"Unknown article or author"
//	@Router		/api/articles/{article_id}/comments [post]
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "article_id")
	if err != nil {
		return err
	}
	var req model.NewComment
	if err := readJSON(r.Body, &req); err != nil {
		return err
	}
	if err := s.store.ArticleExists(r.Context(), id); err != nil {
		return err
	}
	if req.Author != nil {
		if err := s.store.UserExists(r.Context(), *req.Author); err != nil {
			return err
		}
	}
	comment, err := s.store.CreateComment(r.Context(), id, req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, commentResponse{Comment: comment})
	return nil
}

// handleVoteComment godoc
//
//	@Summary	Vote on a comment
//	@Tags		Comments
//	@Accept		json
//	@Produce	json
//	@Param		comment_id	path		int			true	"Comment ID"
//	@Param		votes		body		votePatch	true	"Vote delta"
//	@Success	200			{object}	commentVotesResponse
//	@Failure	400			{object}	errorResponse	"Bad id or inc_votes"
//	@Failure	404			{object}	errorResponse	"Comment not found"
//	@Router		/api/comments/{comment_id} [patch]
func (s *Server) handleVoteComment(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "comment_id")
	if err != nil {
		return err
	}
	delta, err := readVotes(r)
	if err != nil {
		return err
	}
	comment, err := s.store.IncrementCommentVotes(r.Context(), id, delta)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, commentVotesResponse{Votes: comment})
	return nil
}

// handleDeleteComment godoc
//
//	@Summary	Delete a comment
//	@Tags		Comments
//	@Param		comment_id	path	int	true	"Comment ID"
//	@Success	204
//	@Failure	400	{object}	errorResponse	"Non-numeric id"
//	@Failure	404	{object}	errorResponse	"Comment not found"
//	@Router		/api/comments/{comment_id} [delete]
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "comment_id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteComment(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type commentsResponse struct {
	Comments []model.Comment `json:"comments"`
}

type commentResponse struct {
	Comment model.Comment `json:"comment"`
}

type commentVotesResponse struct {
	Votes model.Comment `json:"votes"`
}
