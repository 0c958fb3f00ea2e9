package httpapp

import (
	"net/http"

	"github.com/alphabot-ai/newsboard/internal/model"
	"github.com/alphabot-ai/newsboard/internal/store"
)

// handleListArticles godoc
//
//	@Summary		List articles
//	@Description	List articles without their body, with comment counts
//	@Tags			Articles
//	@Produce		json
//	@Param			sort_by	query		string	false	"Sort column"	Enums(article_id, author, title, topic, created_at, votes, article_img_url, comment_count)	default(created_at)
//	@Param			order	query		string	false	"Sort direction"	Enums(ASC, DESC)	default(ASC)
//	@Param			topic	query		string	false	"Topic slug"
//	@Param			limit	query		int		false	"Page size"	default(10)
//	@Param			p		query		int		false	"Zero-based page number"	default(0)
//	@Success		200		{object}	articlesResponse
//	@Failure		400		{object}	errorResponse	"Bad sort_by, order or paging value"
//	@Failure		404		{object}	errorResponse	"No articles for topic"
//	@Router			/api/articles [get]
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) error {
	page, err := pageOpts(r)
	if err != nil {
		return err
	}
	q := r.URL.Query()
	articles, err := s.store.ListArticles(r.Context(), store.ArticleListOpts{
		SortBy:   q.Get("sort_by"),
		Order:    q.Get("order"),
		Topic:    q.Get("topic"),
		PageOpts: page,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, articlesResponse{Articles: articles})
	return nil
}

// handleGetArticle godoc
//
//	@Summary		Get an article
//	@Description	Returns the article with its comment count, wrapped in a one-element array
//	@Tags			Articles
//	@Produce		json
//	@Param			article_id	path		int	true	"Article ID"
//	@Success		200			{object}	articleDetailResponse
//	@Failure		400			{object}	errorResponse	"Non-numeric id"
//	@Failure		404			{object}	errorResponse	"Article not found"
//	@Router			/api/articles/{article_id} [get]
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "article_id")
	if err != nil {
		return err
	}
	article, err := s.store.GetArticle(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, articleDetailResponse{Articles: []model.ArticleDetail{article}})
	return nil
}

// handleCreateArticle godoc
//
//	@Summary	Post an article
//	@Tags		Articles
//	@Accept		json
//	@Produce	json
//	@Param		article	body		model.NewArticle	true	"Article"
//	@Success	201		{object}	articleResponse
//	@Failure	400		{object}	errorResponse	"Incomplete entry or unknown topic"
//	@Failure	404		{object}	errorResponse	"Unknown author"
//	@Router		/api/articles [post]
func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) error {
	var req model.NewArticle
	if err := readJSON(r.Body, &req); err != nil {
		return err
	}
	if req.Author != nil {
		if err := s.store.UserExists(r.Context(), *req.Author); err != nil {
			return err
		}
	}
	article, err := s.store.CreateArticle(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, articleResponse{Article: article})
	return nil
}

// handleVoteArticle godoc
//
//	@Summary		Vote on an article
//	@Description	Adds inc_votes (which may be negative) to the article's votes
//	@Tags			Articles
//	@Accept			json
//	@Produce		json
//	@Param			article_id	path		int			true	"Article ID"
//	@Param			votes		body		votePatch	true	"Vote delta"
//	@Success		200			{object}	articleVotesResponse
//	@Failure		400			{object}	errorResponse	"Bad id or inc_votes"
//	@Failure		404			{object}	errorResponse	"Article not found"
//	@Router			/api/articles/{article_id} [patch]
func (s *Server) handleVoteArticle(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "article_id")
	if err != nil {
		return err
	}
	delta, err := readVotes(r)
	if err != nil {
		return err
	}
	article, err := s.store.IncrementArticleVotes(r.Context(), id, delta)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, articleVotesResponse{Votes: article})
	return nil
}

// handleDeleteArticle godoc
//
//	@Summary		Delete an article
//	@Description	Deletes the article and all of its comments
//	@Tags			Articles
//	@Param			article_id	path	int	true	"Article ID"
//	@Success		204
//	@Failure		400	{object}	errorResponse	"Non-numeric id"
//	@Failure		404	{object}	errorResponse	"Article not found"
//	@Router			/api/articles/{article_id} [delete]
func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "article_id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteArticle(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type articlesResponse struct {
	Articles []model.ArticleSummary `json:"articles"`
}

type articleDetailResponse struct {
	Articles []model.ArticleDetail `json:"articles"`
}

type articleResponse struct {
	Article model.Article `json:"article"`
}

type articleVotesResponse struct {
	Votes model.Article `json:"votes"`
}
