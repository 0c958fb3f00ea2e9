package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alphabot-ai/newsboard/internal/apperr"
	"github.com/alphabot-ai/newsboard/internal/model"
	"github.com/alphabot-ai/newsboard/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Open opens the database at path, enables foreign keys on every pooled
// connection and applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", withForeignKeys(path))
	if err != nil {
		return nil, err
	}
	// A single connection keeps shared-cache in-memory databases free of
	// table-lock errors.
	db.SetMaxOpenConns(1)
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already-migrated handle.
func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "sqlite")}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS topics (
	slug TEXT PRIMARY KEY NOT NULL,
	description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY NOT NULL,
	name TEXT NOT NULL,
	avatar_url TEXT
);

CREATE TABLE IF NOT EXISTS articles (
	article_id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	topic TEXT NOT NULL REFERENCES topics(slug),
	author TEXT NOT NULL REFERENCES users(username),
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	votes INTEGER NOT NULL DEFAULT 0,
	article_img_url TEXT
);
CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles(topic);

CREATE TABLE IF NOT EXISTS comments (
	comment_id INTEGER PRIMARY KEY AUTOINCREMENT,
	body TEXT NOT NULL,
	article_id INTEGER NOT NULL REFERENCES articles(article_id) ON DELETE CASCADE,
	author TEXT NOT NULL REFERENCES users(username),
	votes INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_article_id ON comments(article_id, created_at);
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) ListTopics(ctx context.Context) ([]model.Topic, error) {
	topics := []model.Topic{}
	if err := s.db.SelectContext(ctx, &topics, `SELECT slug, description FROM topics ORDER BY slug`); err != nil {
		return nil, err
	}
	return topics, nil
}

func (s *Store) CreateTopic(ctx context.Context, topic model.NewTopic) (model.Topic, error) {
	var created model.Topic
	err := s.db.GetContext(ctx, &created, `
INSERT INTO topics (slug, description)
VALUES (?, ?)
RETURNING slug, description
`, topic.Slug, topic.Description)
	if err != nil {
		return model.Topic{}, classify(err)
	}
	return created, nil
}

const articleSummaryColumns = `a.article_id, a.author, a.title, a.topic, a.created_at, a.votes, a.article_img_url,
	COUNT(c.comment_id) AS comment_count`

func (s *Store) ListArticles(ctx context.Context, opts store.ArticleListOpts) ([]model.ArticleSummary, error) {
	orderBy, err := store.OrderClause(opts.SortBy, opts.Order)
	if err != nil {
		return nil, err
	}
	page := opts.PageOpts.Normalize()

	var where string
	args := []any{}
	if opts.Topic != "" {
		where = "WHERE a.topic = ?"
		args = append(args, opts.Topic)
	}
	args = append(args, page.Limit, page.Offset())

	query := fmt.Sprintf(`
SELECT %s
FROM articles a
LEFT JOIN comments c ON c.article_id = a.article_id
%s
GROUP BY a.article_id
ORDER BY %s
LIMIT ? OFFSET ?
`, articleSummaryColumns, where, orderBy)

	var rows []articleSummaryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 && opts.Topic != "" {
		return nil, apperr.NotFound(store.MsgArticleNotFound)
	}
	articles := make([]model.ArticleSummary, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, r.model())
	}
	return articles, nil
}

func (s *Store) GetArticle(ctx context.Context, id int64) (model.ArticleDetail, error) {
	var row articleDetailRow
	err := s.db.GetContext(ctx, &row, `
SELECT a.article_id, a.author, a.title, a.body, a.topic, a.created_at, a.votes, a.article_img_url,
	COUNT(c.comment_id) AS comment_count
FROM articles a
LEFT JOIN comments c ON c.article_id = a.article_id
WHERE a.article_id = ?
GROUP BY a.article_id
`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ArticleDetail{}, apperr.NotFound(store.MsgArticleNotFound)
		}
		return model.ArticleDetail{}, classify(err)
	}
	return model.ArticleDetail{Article: row.articleRow.model(), CommentCount: row.CommentCount}, nil
}

const articleColumns = `article_id, author, title, body, topic, created_at, votes, article_img_url`

func (s *Store) CreateArticle(ctx context.Context, article model.NewArticle) (model.Article, error) {
	var row articleRow
	err := s.db.GetContext(ctx, &row, `
INSERT INTO articles (author, title, body, topic, created_at, article_img_url)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING `+articleColumns, article.Author, article.Title, article.Body, article.Topic, time.Now().Unix(), article.ArticleImgURL)
	if err != nil {
		return model.Article{}, classify(err)
	}
	return row.model(), nil
}

func (s *Store) IncrementArticleVotes(ctx context.Context, id int64, delta int) (model.Article, error) {
	var row articleRow
	err := s.db.GetContext(ctx, &row, `
UPDATE articles SET votes = votes + ? WHERE article_id = ?
RETURNING `+articleColumns, delta, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Article{}, apperr.NotFound(store.MsgNotFound)
		}
		return model.Article{}, classify(err)
	}
	return row.model(), nil
}

func (s *Store) DeleteArticle(ctx context.Context, id int64) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE article_id = ?`, id); err != nil {
		return classify(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE article_id = ?`, id)
	if err != nil {
		return classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = apperr.NotFound(store.MsgArticleDeleteNotFound)
		return err
	}
	return tx.Commit()
}

func (s *Store) ArticleExists(ctx context.Context, id int64) error {
	return s.exists(ctx, `SELECT 1 FROM articles WHERE article_id = ?`, id)
}

func (s *Store) ListCommentsByArticle(ctx context.Context, articleID int64, opts store.PageOpts) ([]model.Comment, error) {
	page := opts.Normalize()
	var rows []commentRow
	err := s.db.SelectContext(ctx, &rows, `
SELECT comment_id, article_id, author, body, votes, created_at
FROM comments
WHERE article_id = ?
ORDER BY created_at ASC, comment_id ASC
LIMIT ? OFFSET ?
`, articleID, page.Limit, page.Offset())
	if err != nil {
		return nil, classify(err)
	}
	comments := make([]model.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.model())
	}
	return comments, nil
}

const commentColumns = `comment_id, article_id, author, body, votes, created_at`

func (s *Store) CreateComment(ctx context.Context, articleID int64, comment model.NewComment) (model.Comment, error) {
	var row commentRow
	err := s.db.GetContext(ctx, &row, `
INSERT INTO comments (article_id, author, body, created_at)
VALUES (?, ?, ?, ?)
RETURNING `+commentColumns, articleID, comment.Author, comment.Body, time.Now().Unix())
	if err != nil {
		return model.Comment{}, classify(err)
	}
	return row.model(), nil
}

func (s *Store) IncrementCommentVotes(ctx context.Context, id int64, delta int) (model.Comment, error) {
	var row commentRow
	err := s.db.GetContext(ctx, &row, `
UPDATE comments SET votes = votes + ? WHERE comment_id = ?
RETURNING `+commentColumns, delta, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, apperr.NotFound(store.MsgNotFound)
		}
		return model.Comment{}, classify(err)
	}
	return row.model(), nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE comment_id = ?`, id)
	if err != nil {
		return classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound(store.MsgCommentDeleteNotFound)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT username, name, avatar_url FROM users ORDER BY username`); err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.model())
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, username string) (model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT username, name, avatar_url FROM users WHERE username = ?`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, apperr.NotFound(store.MsgUserNotFound)
		}
		return model.User{}, err
	}
	return row.model(), nil
}

func (s *Store) UserExists(ctx context.Context, username string) error {
	return s.exists(ctx, `SELECT 1 FROM users WHERE username = ?`, username)
}

func (s *Store) Seed(ctx context.Context, data store.Dataset) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM comments`,
		`DELETE FROM articles`,
		`DELETE FROM users`,
		`DELETE FROM topics`,
		`DELETE FROM sqlite_sequence WHERE name IN ('articles', 'comments')`,
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	for _, t := range data.Topics {
		if _, err = tx.ExecContext(ctx, `INSERT INTO topics (slug, description) VALUES (?, ?)`, t.Slug, t.Description); err != nil {
			return fmt.Errorf("insert topic %s: %w", t.Slug, err)
		}
	}
	for _, u := range data.Users {
		if _, err = tx.ExecContext(ctx, `INSERT INTO users (username, name, avatar_url) VALUES (?, ?, ?)`, u.Username, u.Name, u.AvatarURL); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Username, err)
		}
	}
	for _, a := range data.Articles {
		if _, err = tx.ExecContext(ctx, `
INSERT INTO articles (article_id, author, title, body, topic, created_at, votes, article_img_url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, a.ID, a.Author, a.Title, a.Body, a.Topic, a.CreatedAt.Unix(), a.Votes, a.ArticleImgURL); err != nil {
			return fmt.Errorf("insert article %d: %w", a.ID, err)
		}
	}
	for _, c := range data.Comments {
		if _, err = tx.ExecContext(ctx, `
INSERT INTO comments (comment_id, article_id, author, body, votes, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, c.ID, c.ArticleID, c.Author, c.Body, c.Votes, c.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("insert comment %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) exists(ctx context.Context, query string, arg any) error {
	var one int
	if err := s.db.QueryRowxContext(ctx, query, arg).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound(store.MsgNotFound)
		}
		return err
	}
	return nil
}

func withForeignKeys(path string) string {
	if strings.Contains(path, "foreign_keys") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// classify maps SQLite constraint failures onto the SQLSTATE codes the HTTP
// layer understands. Other errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return &store.DBError{Code: store.CodeNotNullViolation, Err: err}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &store.DBError{Code: store.CodeForeignKeyViolation, Err: err}
	case strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY"):
		return &store.DBError{Code: store.CodeUniqueViolation, Err: err}
	case strings.Contains(msg, "datatype mismatch"):
		return &store.DBError{Code: store.CodeInvalidTextRepresentation, Err: err}
	}
	return err
}
