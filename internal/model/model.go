package model

import "time"

type Topic struct {
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`
}

// Article is a stored article row.
type Article struct {
	ID            int64     `json:"article_id" db:"article_id"`
	Author        string    `json:"author" db:"author"`
	Title         string    `json:"title" db:"title"`
	Body          string    `json:"body" db:"body"`
	Topic         string    `json:"topic" db:"topic"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	Votes         int       `json:"votes" db:"votes"`
	ArticleImgURL *string   `json:"article_img_url" db:"article_img_url"`
}

// ArticleDetail is a single article with its comment count.
type ArticleDetail struct {
	Article
	CommentCount int `json:"comment_count" db:"comment_count"`
}

// ArticleSummary is an article as listed: no body, with its comment count.
type ArticleSummary struct {
	ID            int64     `json:"article_id" db:"article_id"`
	Author        string    `json:"author" db:"author"`
	Title         string    `json:"title" db:"title"`
	Topic         string    `json:"topic" db:"topic"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	Votes         int       `json:"votes" db:"votes"`
	ArticleImgURL *string   `json:"article_img_url" db:"article_img_url"`
	CommentCount  int       `json:"comment_count" db:"comment_count"`
}

type Comment struct {
	ID        int64     `json:"comment_id" db:"comment_id"`
	ArticleID int64     `json:"article_id" db:"article_id"`
	Author    string    `json:"author" db:"author"`
	Body      string    `json:"body" db:"body"`
	Votes     int       `json:"votes" db:"votes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type User struct {
	Username  string `json:"username" db:"username"`
	Name      string `json:"name" db:"name"`
	AvatarURL string `json:"avatar_url" db:"avatar_url"`
}

// NewTopic and the other New* inputs use pointers so that a missing or null
// field reaches the database as NULL.
type NewTopic struct {
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

type NewArticle struct {
	Author        *string `json:"author"`
	Title         *string `json:"title"`
	Body          *string `json:"body"`
	Topic         *string `json:"topic"`
	ArticleImgURL *string `json:"article_img_url"`
}

type NewComment struct {
	Author *string `json:"author"`
	Body   *string `json:"body"`
}
