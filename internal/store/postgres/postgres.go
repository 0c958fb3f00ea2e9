// Package postgres implements store.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alphabot-ai/newsboard/internal/apperr"
	"github.com/alphabot-ai/newsboard/internal/model"
	"github.com/alphabot-ai/newsboard/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL and applies pending migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := applySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS topics (
	slug VARCHAR PRIMARY KEY,
	description VARCHAR NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	username VARCHAR PRIMARY KEY,
	name VARCHAR NOT NULL,
	avatar_url VARCHAR
);

CREATE TABLE IF NOT EXISTS articles (
	article_id SERIAL PRIMARY KEY,
	title VARCHAR NOT NULL,
	topic VARCHAR NOT NULL REFERENCES topics(slug),
	author VARCHAR NOT NULL REFERENCES users(username),
	body VARCHAR NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	votes INT NOT NULL DEFAULT 0,
	article_img_url VARCHAR
);
CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles(topic);

CREATE TABLE IF NOT EXISTS comments (
	comment_id SERIAL PRIMARY KEY,
	body VARCHAR NOT NULL,
	article_id INT NOT NULL REFERENCES articles(article_id) ON DELETE CASCADE,
	author VARCHAR NOT NULL REFERENCES users(username),
	votes INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_comments_article_id ON comments(article_id, created_at);
`,
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INT PRIMARY KEY)`); err != nil {
		return err
	}

	var currentVersion int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := pool.Exec(ctx, migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := pool.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := s.pool.Query(ctx, `SELECT slug, description FROM topics ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[model.Topic])
}

func (s *Store) CreateTopic(ctx context.Context, topic model.NewTopic) (model.Topic, error) {
	rows, _ := s.pool.Query(ctx, `
INSERT INTO topics (slug, description)
VALUES ($1, $2)
RETURNING slug, description
`, topic.Slug, topic.Description)
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Topic])
	if err != nil {
		return model.Topic{}, classify(err)
	}
	return created, nil
}

const articleSummaryColumns = `a.article_id, a.author, a.title, a.topic, a.created_at, a.votes, a.article_img_url,
	COUNT(c.comment_id)::INT AS comment_count`

func (s *Store) ListArticles(ctx context.Context, opts store.ArticleListOpts) ([]model.ArticleSummary, error) {
	orderBy, err := store.OrderClause(opts.SortBy, opts.Order)
	if err != nil {
		return nil, err
	}
	page := opts.PageOpts.Normalize()

	var where string
	args := []any{}
	if opts.Topic != "" {
		args = append(args, opts.Topic)
		where = "WHERE a.topic = $1"
	}
	args = append(args, page.Limit, page.Offset())

	query := fmt.Sprintf(`
SELECT %s
FROM articles a
LEFT JOIN comments c ON c.article_id = a.article_id
%s
GROUP BY a.article_id
ORDER BY %s
LIMIT $%d OFFSET $%d
`, articleSummaryColumns, where, orderBy, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	articles, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.ArticleSummary])
	if err != nil {
		return nil, classify(err)
	}
	if len(articles) == 0 && opts.Topic != "" {
		return nil, apperr.NotFound(store.MsgArticleNotFound)
	}
	if articles == nil {
		articles = []model.ArticleSummary{}
	}
	return articles, nil
}

func (s *Store) GetArticle(ctx context.Context, id int64) (model.ArticleDetail, error) {
	rows, _ := s.pool.Query(ctx, `
SELECT a.article_id, a.author, a.title, a.body, a.topic, a.created_at, a.votes, a.article_img_url,
	COUNT(c.comment_id)::INT AS comment_count
FROM articles a
LEFT JOIN comments c ON c.article_id = a.article_id
WHERE a.article_id = $1
GROUP BY a.article_id
`, id)
	article, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.ArticleDetail])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ArticleDetail{}, apperr.NotFound(store.MsgArticleNotFound)
		}
		return model.ArticleDetail{}, classify(err)
	}
	return article, nil
}

const articleColumns = `article_id, author, title, body, topic, created_at, votes, article_img_url`

func (s *Store) CreateArticle(ctx context.Context, article model.NewArticle) (model.Article, error) {
	rows, _ := s.pool.Query(ctx, `
INSERT INTO articles (author, title, body, topic, article_img_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+articleColumns, article.Author, article.Title, article.Body, article.Topic, article.ArticleImgURL)
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Article])
	if err != nil {
		return model.Article{}, classify(err)
	}
	return created, nil
}

func (s *Store) IncrementArticleVotes(ctx context.Context, id int64, delta int) (model.Article, error) {
	rows, _ := s.pool.Query(ctx, `
UPDATE articles SET votes = votes + $1 WHERE article_id = $2
RETURNING `+articleColumns, delta, id)
	article, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Article])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Article{}, apperr.NotFound(store.MsgNotFound)
		}
		return model.Article{}, classify(err)
	}
	return article, nil
}

func (s *Store) DeleteArticle(ctx context.Context, id int64) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM comments WHERE article_id = $1`, id); err != nil {
		return classify(err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM articles WHERE article_id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		err = apperr.NotFound(store.MsgArticleDeleteNotFound)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ArticleExists(ctx context.Context, id int64) error {
	return s.exists(ctx, `SELECT 1 FROM articles WHERE article_id = $1`, id)
}

const commentColumns = `comment_id, article_id, author, body, votes, created_at`

func (s *Store) ListCommentsByArticle(ctx context.Context, articleID int64, opts store.PageOpts) ([]model.Comment, error) {
	page := opts.Normalize()
	rows, err := s.pool.Query(ctx, `
SELECT `+commentColumns+`
FROM comments
WHERE article_id = $1
ORDER BY created_at ASC, comment_id ASC
LIMIT $2 OFFSET $3
`, articleID, page.Limit, page.Offset())
	if err != nil {
		return nil, classify(err)
	}
	comments, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Comment])
	if err != nil {
		return nil, classify(err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

func (s *Store) CreateComment(ctx context.Context, articleID int64, comment model.NewComment) (model.Comment, error) {
	rows, _ := s.pool.Query(ctx, `
INSERT INTO comments (article_id, author, body)
VALUES ($1, $2, $3)
RETURNING `+commentColumns, articleID, comment.Author, comment.Body)
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Comment])
	if err != nil {
		return model.Comment{}, classify(err)
	}
	return created, nil
}

func (s *Store) IncrementCommentVotes(ctx context.Context, id int64, delta int) (model.Comment, error) {
	rows, _ := s.pool.Query(ctx, `
UPDATE comments SET votes = votes + $1 WHERE comment_id = $2
RETURNING `+commentColumns, delta, id)
	comment, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Comment])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Comment{}, apperr.NotFound(store.MsgNotFound)
		}
		return model.Comment{}, classify(err)
	}
	return comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE comment_id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(store.MsgCommentDeleteNotFound)
	}
	return nil
}

const userColumns = `username, name, COALESCE(avatar_url, '') AS avatar_url`

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
}

func (s *Store) GetUser(ctx context.Context, username string) (model.User, error) {
	rows, _ := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, apperr.NotFound(store.MsgUserNotFound)
		}
		return model.User{}, err
	}
	return user, nil
}

func (s *Store) UserExists(ctx context.Context, username string) error {
	return s.exists(ctx, `SELECT 1 FROM users WHERE username = $1`, username)
}

// Seed truncates every table, bulk-loads data with COPY and moves the id
// sequences past the loaded rows.
func (s *Store) Seed(ctx context.Context, data store.Dataset) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `TRUNCATE comments, articles, users, topics RESTART IDENTITY CASCADE`); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}

	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"topics"}, []string{"slug", "description"},
		pgx.CopyFromSlice(len(data.Topics), func(i int) ([]any, error) {
			t := data.Topics[i]
			return []any{t.Slug, t.Description}, nil
		})); err != nil {
		return fmt.Errorf("copy topics: %w", err)
	}
	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"users"}, []string{"username", "name", "avatar_url"},
		pgx.CopyFromSlice(len(data.Users), func(i int) ([]any, error) {
			u := data.Users[i]
			return []any{u.Username, u.Name, u.AvatarURL}, nil
		})); err != nil {
		return fmt.Errorf("copy users: %w", err)
	}
	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"articles"},
		[]string{"article_id", "author", "title", "body", "topic", "created_at", "votes", "article_img_url"},
		pgx.CopyFromSlice(len(data.Articles), func(i int) ([]any, error) {
			a := data.Articles[i]
			return []any{int32(a.ID), a.Author, a.Title, a.Body, a.Topic, a.CreatedAt, int32(a.Votes), a.ArticleImgURL}, nil
		})); err != nil {
		return fmt.Errorf("copy articles: %w", err)
	}
	if _, err = tx.CopyFrom(ctx, pgx.Identifier{"comments"},
		[]string{"comment_id", "article_id", "author", "body", "votes", "created_at"},
		pgx.CopyFromSlice(len(data.Comments), func(i int) ([]any, error) {
			c := data.Comments[i]
			return []any{int32(c.ID), int32(c.ArticleID), c.Author, c.Body, int32(c.Votes), c.CreatedAt}, nil
		})); err != nil {
		return fmt.Errorf("copy comments: %w", err)
	}

	for _, stmt := range []string{
		`SELECT setval(pg_get_serial_sequence('articles', 'article_id'), COALESCE(MAX(article_id), 0) + 1, false) FROM articles`,
		`SELECT setval(pg_get_serial_sequence('comments', 'comment_id'), COALESCE(MAX(comment_id), 0) + 1, false) FROM comments`,
	} {
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("reset sequences: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) exists(ctx context.Context, query string, arg any) error {
	var one int
	if err := s.pool.QueryRow(ctx, query, arg).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(store.MsgNotFound)
		}
		return classify(err)
	}
	return nil
}

// classify wraps server errors whose SQLSTATE the HTTP layer maps.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case store.CodeNumericValueOutOfRange,
		store.CodeInvalidTextRepresentation,
		store.CodeNotNullViolation,
		store.CodeForeignKeyViolation,
		store.CodeUniqueViolation:
		return &store.DBError{Code: pgErr.Code, Err: err}
	}
	return err
}
