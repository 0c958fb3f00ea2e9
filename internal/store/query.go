package store

import (
	"fmt"
	"strings"

	"github.com/alphabot-ai/newsboard/internal/apperr"
)

// articleSortColumns maps every accepted sort_by value to the expression it
// orders by. Article queries alias the articles table as "a".
var articleSortColumns = map[string]string{
	"author":          "a.author",
	"title":           "a.title",
	"article_id":      "a.article_id",
	"topic":           "a.topic",
	"created_at":      "a.created_at",
	"article_img_url": "a.article_img_url",
	"votes":           "a.votes",
	"comment_count":   "comment_count",
}

var orderKeywords = map[string]string{
	"ASC":  "ASC",
	"DESC": "DESC",
}

// SortKeys lists the accepted sort_by values.
func SortKeys() []string {
	return []string{"author", "title", "article_id", "topic", "created_at", "article_img_url", "votes", "comment_count"}
}

// OrderClause builds the ORDER BY body for an article listing. sortBy and
// order are client input and are only ever looked up, never interpolated:
// the returned text is assembled from the fixed tables above. Empty values
// fall back to DefaultSort and DefaultOrder.
func OrderClause(sortBy, order string) (string, error) {
	if sortBy == "" {
		sortBy = DefaultSort
	}
	if order == "" {
		order = DefaultOrder
	}
	column, ok := articleSortColumns[sortBy]
	if !ok {
		return "", ErrBadSortBy
	}
	keyword, ok := orderKeywords[strings.ToUpper(order)]
	if !ok {
		return "", ErrBadOrder
	}
	if column == articleSortColumns["article_id"] {
		return fmt.Sprintf("%s %s", column, keyword), nil
	}
	return fmt.Sprintf("%s %s, a.article_id ASC", column, keyword), nil
}

// Normalize fills defaults for a zero page request.
func (p PageOpts) Normalize() PageOpts {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 0 {
		p.Page = 0
	}
	return p
}

// Validate rejects negative values, a limit above MaxLimit and any page whose
// offset would pass MaxOffset.
func (p PageOpts) Validate() error {
	if p.Limit < 0 || p.Page < 0 || p.Limit > MaxLimit {
		return apperr.BadRequest("bad request")
	}
	if p.Page > MaxOffset/p.Normalize().Limit {
		return apperr.BadRequest("bad request")
	}
	return nil
}

// Offset is the number of rows skipped before the page starts.
func (p PageOpts) Offset() int {
	p = p.Normalize()
	return p.Limit * p.Page
}
