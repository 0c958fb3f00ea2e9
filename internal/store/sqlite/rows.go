package sqlite

import (
	"database/sql"
	"time"

	"github.com/alphabot-ai/newsboard/internal/model"
)

// Row types mirror the tables as stored: timestamps are Unix seconds and
// nullable text columns scan through sql.NullString.

type userRow struct {
	Username  string         `db:"username"`
	Name      string         `db:"name"`
	AvatarURL sql.NullString `db:"avatar_url"`
}

func (r userRow) model() model.User {
	return model.User{Username: r.Username, Name: r.Name, AvatarURL: r.AvatarURL.String}
}

type articleRow struct {
	ID            int64          `db:"article_id"`
	Author        string         `db:"author"`
	Title         string         `db:"title"`
	Body          string         `db:"body"`
	Topic         string         `db:"topic"`
	CreatedAt     int64          `db:"created_at"`
	Votes         int            `db:"votes"`
	ArticleImgURL sql.NullString `db:"article_img_url"`
}

func (r articleRow) model() model.Article {
	return model.Article{
		ID:            r.ID,
		Author:        r.Author,
		Title:         r.Title,
		Body:          r.Body,
		Topic:         r.Topic,
		CreatedAt:     time.Unix(r.CreatedAt, 0).UTC(),
		Votes:         r.Votes,
		ArticleImgURL: nullableString(r.ArticleImgURL),
	}
}

type articleDetailRow struct {
	articleRow
	CommentCount int `db:"comment_count"`
}

type articleSummaryRow struct {
	ID            int64          `db:"article_id"`
	Author        string         `db:"author"`
	Title         string         `db:"title"`
	Topic         string         `db:"topic"`
	CreatedAt     int64          `db:"created_at"`
	Votes         int            `db:"votes"`
	ArticleImgURL sql.NullString `db:"article_img_url"`
	CommentCount  int            `db:"comment_count"`
}

func (r articleSummaryRow) model() model.ArticleSummary {
	return model.ArticleSummary{
		ID:            r.ID,
		Author:        r.Author,
		Title:         r.Title,
		Topic:         r.Topic,
		CreatedAt:     time.Unix(r.CreatedAt, 0).UTC(),
		Votes:         r.Votes,
		ArticleImgURL: nullableString(r.ArticleImgURL),
		CommentCount:  r.CommentCount,
	}
}

type commentRow struct {
	ID        int64  `db:"comment_id"`
	ArticleID int64  `db:"article_id"`
	Author    string `db:"author"`
	Body      string `db:"body"`
	Votes     int    `db:"votes"`
	CreatedAt int64  `db:"created_at"`
}

func (r commentRow) model() model.Comment {
	return model.Comment{
		ID:        r.ID,
		ArticleID: r.ArticleID,
		Author:    r.Author,
		Body:      r.Body,
		Votes:     r.Votes,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
