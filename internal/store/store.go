package store

import (
	"context"
	"math"

	"github.com/alphabot-ai/newsboard/internal/model"
)

const (
	DefaultLimit = 10
	MaxLimit     = 1000
	// MaxOffset keeps Limit*Page inside a 32-bit integer on every driver.
	MaxOffset = math.MaxInt32
	DefaultSort  = "created_at"
	DefaultOrder = "ASC"
)

// PageOpts selects a page of rows. Page is zero-based and translates to an
// offset of Limit*Page rows.
type PageOpts struct {
	Limit int
	Page  int
}

type ArticleListOpts struct {
	SortBy string
	Order  string
	Topic  string
	PageOpts
}

// Dataset is a full snapshot of the four tables, used for seeding.
type Dataset struct {
	Topics   []model.Topic   `json:"topics"`
	Users    []model.User    `json:"users"`
	Articles []model.Article `json:"articles"`
	Comments []model.Comment `json:"comments"`
}

type Store interface {
	TopicStore
	ArticleStore
	CommentStore
	UserStore
	Seeder
	Ping(ctx context.Context) error
	Close() error
}

type TopicStore interface {
	ListTopics(ctx context.Context) ([]model.Topic, error)
	CreateTopic(ctx context.Context, topic model.NewTopic) (model.Topic, error)
}

type ArticleStore interface {
	ListArticles(ctx context.Context, opts ArticleListOpts) ([]model.ArticleSummary, error)
	GetArticle(ctx context.Context, id int64) (model.ArticleDetail, error)
	CreateArticle(ctx context.Context, article model.NewArticle) (model.Article, error)
	IncrementArticleVotes(ctx context.Context, id int64, delta int) (model.Article, error)
	// DeleteArticle removes the article's comments and then the article in a
	// single transaction.
	DeleteArticle(ctx context.Context, id int64) error
	ArticleExists(ctx context.Context, id int64) error
}

type CommentStore interface {
	ListCommentsByArticle(ctx context.Context, articleID int64, opts PageOpts) ([]model.Comment, error)
	CreateComment(ctx context.Context, articleID int64, comment model.NewComment) (model.Comment, error)
	IncrementCommentVotes(ctx context.Context, id int64, delta int) (model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, username string) (model.User, error)
	UserExists(ctx context.Context, username string) error
}

type Seeder interface {
	// Seed replaces the contents of every table with data.
	Seed(ctx context.Context, data Dataset) error
}
