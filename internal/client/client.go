// Package client provides a Go client for the Newsboard API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alphabot-ai/newsboard/internal/model"
)

// Client is a Newsboard API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a new Newsboard client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("newsboard: %d %s", e.Status, e.Msg)
}

// ArticleQuery holds the optional filters of GetArticles. Zero values are
// left out of the request.
type ArticleQuery struct {
	SortBy string
	Order  string
	Topic  string
	Limit  int
	Page   int
}

func (q ArticleQuery) values() url.Values {
	v := url.Values{}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Topic != "" {
		v.Set("topic", q.Topic)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("p", strconv.Itoa(q.Page))
	}
	return v
}

// doRequest performs a JSON request and decodes the reply into out when the
// status matches want.
func (c *Client) doRequest(method, path string, body any, want int, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var apiErr struct {
			Msg string `json:"msg"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Msg == "" {
			apiErr.Msg = string(raw)
		}
		return &APIError{Status: resp.StatusCode, Msg: apiErr.Msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetEndpoints fetches the endpoint descriptions served at /api.
func (c *Client) GetEndpoints() (map[string]json.RawMessage, error) {
	var result struct {
		Endpoints map[string]json.RawMessage `json:"endpoints"`
	}
	if err := c.doRequest(http.MethodGet, "/api", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Endpoints, nil
}

// GetTopics fetches every topic.
func (c *Client) GetTopics() ([]model.Topic, error) {
	var result struct {
		Topics []model.Topic `json:"topics"`
	}
	if err := c.doRequest(http.MethodGet, "/api/topics", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Topics, nil
}

// PostTopic creates a topic.
func (c *Client) PostTopic(slug, description string) (*model.Topic, error) {
	var result struct {
		Topic model.Topic `json:"topic"`
	}
	req := model.NewTopic{Slug: &slug, Description: &description}
	if err := c.doRequest(http.MethodPost, "/api/topics", req, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result.Topic, nil
}

// GetArticles lists articles.
func (c *Client) GetArticles(q ArticleQuery) ([]model.ArticleSummary, error) {
	path := "/api/articles"
	if v := q.values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	var result struct {
		Articles []model.ArticleSummary `json:"articles"`
	}
	if err := c.doRequest(http.MethodGet, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Articles, nil
}

// GetArticle fetches a single article with its comment count.
func (c *Client) GetArticle(id int64) (*model.ArticleDetail, error) {
	var result struct {
		Articles []model.ArticleDetail `json:"articles"`
	}
	if err := c.doRequest(http.MethodGet, fmt.Sprintf("/api/articles/%d", id), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	if len(result.Articles) != 1 {
		return nil, fmt.Errorf("get article: expected 1 article, got %d", len(result.Articles))
	}
	return &result.Articles[0], nil
}

// PostArticle creates an article.
func (c *Client) PostArticle(article model.NewArticle) (*model.Article, error) {
	var result struct {
		Article model.Article `json:"article"`
	}
	if err := c.doRequest(http.MethodPost, "/api/articles", article, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result.Article, nil
}

// VoteArticle adds delta to an article's votes.
func (c *Client) VoteArticle(id int64, delta int) (*model.Article, error) {
	var result struct {
		Votes model.Article `json:"votes"`
	}
	body := map[string]int{"inc_votes": delta}
	if err := c.doRequest(http.MethodPatch, fmt.Sprintf("/api/articles/%d", id), body, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result.Votes, nil
}

// DeleteArticle deletes an article and its comments.
func (c *Client) DeleteArticle(id int64) error {
	return c.doRequest(http.MethodDelete, fmt.Sprintf("/api/articles/%d", id), nil, http.StatusNoContent, nil)
}

// GetComments fetches one page of an article's comments. A zero limit uses
// the server default.
func (c *Client) GetComments(articleID int64, limit, page int) ([]model.Comment, error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	if page > 0 {
		v.Set("p", strconv.Itoa(page))
	}
	path := fmt.Sprintf("/api/articles/%d/comments", articleID)
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var result struct {
		Comments []model.Comment `json:"comments"`
	}
	if err := c.doRequest(http.MethodGet, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Comments, nil
}

// PostComment comments on an article.
func (c *Client) PostComment(articleID int64, author, body string) (*model.Comment, error) {
	var result struct {
		Comment model.Comment `json:"comment"`
	}
	req := model.NewComment{Author: &author, Body: &body}
	if err := c.doRequest(http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", articleID), req, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	return &result.Comment, nil
}

// VoteComment adds delta to a comment's votes.
func (c *Client) VoteComment(id int64, delta int) (*model.Comment, error) {
	var result struct {
		Votes model.Comment `json:"votes"`
	}
	body := map[string]int{"inc_votes": delta}
	if err := c.doRequest(http.MethodPatch, fmt.Sprintf("/api/comments/%d", id), body, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result.Votes, nil
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(id int64) error {
	return c.doRequest(http.MethodDelete, fmt.Sprintf("/api/comments/%d", id), nil, http.StatusNoContent, nil)
}

// GetUsers fetches every user.
func (c *Client) GetUsers() ([]model.User, error) {
	var result struct {
		Users []model.User `json:"users"`
	}
	if err := c.doRequest(http.MethodGet, "/api/users", nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return result.Users, nil
}

// GetUser fetches a single user.
func (c *Client) GetUser(username string) (*model.User, error) {
	var result struct {
		User []model.User `json:"user"`
	}
	if err := c.doRequest(http.MethodGet, "/api/users/"+url.PathEscape(username), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	if len(result.User) != 1 {
		return nil, fmt.Errorf("get user: expected 1 user, got %d", len(result.User))
	}
	return &result.User[0], nil
}
