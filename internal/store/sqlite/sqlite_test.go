package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/newsboard/internal/apperr"
	"github.com/alphabot-ai/newsboard/internal/model"
	"github.com/alphabot-ai/newsboard/internal/seed"
	"github.com/alphabot-ai/newsboard/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_").Replace(t.Name())
	st, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := seed.LoadSample(context.Background(), st); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return st
}

func ptr(s string) *string { return &s }

func requireNotFound(t *testing.T, err error, msg string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected apperr, got %v", err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, msg, appErr.Msg)
}

func TestListTopicsAndUsers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	topics, err := st.ListTopics(ctx)
	require.NoError(t, err)
	assert.Len(t, topics, 3)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	user, err := st.GetUser(ctx, "butter_bridge")
	require.NoError(t, err)
	assert.Equal(t, "jonny", user.Name)

	_, err = st.GetUser(ctx, "doesnotexist")
	requireNotFound(t, err, "User not found")
}

func TestCreateTopic(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	topic, err := st.CreateTopic(ctx, model.NewTopic{Slug: ptr("dogs"), Description: ptr("Not cats")})
	require.NoError(t, err)
	assert.Equal(t, model.Topic{Slug: "dogs", Description: "Not cats"}, topic)

	_, err = st.CreateTopic(ctx, model.NewTopic{Slug: ptr("dogs"), Description: ptr("again")})
	assert.Equal(t, store.CodeUniqueViolation, store.CodeOf(err))

	_, err = st.CreateTopic(ctx, model.NewTopic{Description: ptr("no slug")})
	assert.Equal(t, store.CodeNotNullViolation, store.CodeOf(err))

	_, err = st.CreateTopic(ctx, model.NewTopic{Slug: ptr("birds")})
	assert.Equal(t, store.CodeNotNullViolation, store.CodeOf(err))
}

func TestListArticlesDefaults(t *testing.T) {
	st := newTestStore(t)

	articles, err := st.ListArticles(context.Background(), store.ArticleListOpts{})
	require.NoError(t, err)
	require.Len(t, articles, 10)
	assert.True(t, sort.SliceIsSorted(articles, func(i, j int) bool {
		return articles[i].CreatedAt.Before(articles[j].CreatedAt)
	}))
}

func TestListArticlesSortsByEveryAllowedKey(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	keyOf := map[string]func(a model.ArticleSummary) string{
		"author":          func(a model.ArticleSummary) string { return a.Author },
		"title":           func(a model.ArticleSummary) string { return a.Title },
		"topic":           func(a model.ArticleSummary) string { return a.Topic },
		"article_img_url": func(a model.ArticleSummary) string { return *a.ArticleImgURL },
	}
	numOf := map[string]func(a model.ArticleSummary) int64{
		"article_id":    func(a model.ArticleSummary) int64 { return a.ID },
		"created_at":    func(a model.ArticleSummary) int64 { return a.CreatedAt.Unix() },
		"votes":         func(a model.ArticleSummary) int64 { return int64(a.Votes) },
		"comment_count": func(a model.ArticleSummary) int64 { return int64(a.CommentCount) },
	}

	for _, order := range []string{"ASC", "DESC"} {
		for _, key := range store.SortKeys() {
			articles, err := st.ListArticles(ctx, store.ArticleListOpts{SortBy: key, Order: order, PageOpts: store.PageOpts{Limit: 50}})
			require.NoError(t, err, key)
			require.Len(t, articles, 13, key)
			for i := 1; i < len(articles); i++ {
				prev, cur := articles[i-1], articles[i]
				if f, ok := keyOf[key]; ok {
					if order == "ASC" {
						assert.LessOrEqual(t, f(prev), f(cur), "%s %s", key, order)
					} else {
						assert.GreaterOrEqual(t, f(prev), f(cur), "%s %s", key, order)
					}
					continue
				}
				f := numOf[key]
				if order == "ASC" {
					assert.LessOrEqual(t, f(prev), f(cur), "%s %s", key, order)
				} else {
					assert.GreaterOrEqual(t, f(prev), f(cur), "%s %s", key, order)
				}
			}
		}
	}
}

func TestListArticlesRejectsUnknownSort(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.ListArticles(ctx, store.ArticleListOpts{SortBy: "hello"})
	assert.ErrorIs(t, err, store.ErrBadSortBy)

	_, err = st.ListArticles(ctx, store.ArticleListOpts{Order: "hello"})
	assert.ErrorIs(t, err, store.ErrBadOrder)
}

func TestListArticlesTopicFilter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cats, err := st.ListArticles(ctx, store.ArticleListOpts{Topic: "cats"})
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, int64(5), cats[0].ID)
	assert.Equal(t, 2, cats[0].CommentCount)

	_, err = st.ListArticles(ctx, store.ArticleListOpts{Topic: "paper"})
	requireNotFound(t, err, "Article not found")
}

func TestListArticlesPagination(t *testing.T) {
	st := newTestStore(t)

	articles, err := st.ListArticles(context.Background(), store.ArticleListOpts{
		SortBy:   "article_id",
		PageOpts: store.PageOpts{Limit: 2, Page: 3},
	})
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, int64(7), articles[0].ID)
	assert.Equal(t, int64(8), articles[1].ID)

	articles, err = st.ListArticles(context.Background(), store.ArticleListOpts{PageOpts: store.PageOpts{Limit: 10, Page: 9}})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestGetArticle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	article, err := st.GetArticle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "butter_bridge", article.Author)
	assert.Equal(t, "I find this existence challenging", article.Body)
	assert.Equal(t, 100, article.Votes)
	assert.Equal(t, 11, article.CommentCount)

	article, err = st.GetArticle(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, 0, article.CommentCount)

	_, err = st.GetArticle(ctx, 99999)
	requireNotFound(t, err, "Article not found")
}

func TestCreateArticle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	article, err := st.CreateArticle(ctx, model.NewArticle{
		Author: ptr("rogersop"),
		Title:  ptr("example title"),
		Body:   ptr("example body"),
		Topic:  ptr("mitch"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(14), article.ID)
	assert.Equal(t, 0, article.Votes)
	assert.Nil(t, article.ArticleImgURL)
	assert.False(t, article.CreatedAt.IsZero())

	_, err = st.CreateArticle(ctx, model.NewArticle{Author: ptr("rogersop"), Body: ptr("b"), Topic: ptr("mitch")})
	assert.Equal(t, store.CodeNotNullViolation, store.CodeOf(err))

	_, err = st.CreateArticle(ctx, model.NewArticle{Author: ptr("nobody"), Title: ptr("t"), Body: ptr("b"), Topic: ptr("mitch")})
	assert.Equal(t, store.CodeForeignKeyViolation, store.CodeOf(err))
}

func TestIncrementVotes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	article, err := st.IncrementArticleVotes(ctx, 1, -150)
	require.NoError(t, err)
	assert.Equal(t, -50, article.Votes)

	_, err = st.IncrementArticleVotes(ctx, 9999, 1)
	requireNotFound(t, err, "not found")

	up, err := st.IncrementCommentVotes(ctx, 1, 100)
	require.NoError(t, err)
	down, err := st.IncrementCommentVotes(ctx, 1, -100)
	require.NoError(t, err)
	assert.Equal(t, up.Votes-100, down.Votes)
	assert.Equal(t, 16, down.Votes)

	_, err = st.IncrementCommentVotes(ctx, 9999, 1)
	requireNotFound(t, err, "not found")
}

func TestDeleteArticleCascades(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.DeleteArticle(ctx, 1))

	_, err := st.GetArticle(ctx, 1)
	requireNotFound(t, err, "Article not found")

	var remaining int
	require.NoError(t, st.db.GetContext(ctx, &remaining, `SELECT COUNT(*) FROM comments WHERE article_id = 1`))
	assert.Zero(t, remaining)
	require.NoError(t, st.db.GetContext(ctx, &remaining, `SELECT COUNT(*) FROM comments`))
	assert.Equal(t, 7, remaining)

	err = st.DeleteArticle(ctx, 1)
	requireNotFound(t, err, "article not found")
}

func TestComments(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	all, err := st.ListCommentsByArticle(ctx, 1, store.PageOpts{Limit: 50})
	require.NoError(t, err)
	require.Len(t, all, 11)

	page, err := st.ListCommentsByArticle(ctx, 1, store.PageOpts{Limit: 2, Page: 3})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[6], page[0])
	assert.Equal(t, all[7], page[1])

	none, err := st.ListCommentsByArticle(ctx, 2, store.PageOpts{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	comment, err := st.CreateComment(ctx, 3, model.NewComment{Author: ptr("rogersop"), Body: ptr("comment comment")})
	require.NoError(t, err)
	assert.Equal(t, int64(19), comment.ID)
	assert.Equal(t, int64(3), comment.ArticleID)
	assert.Equal(t, 0, comment.Votes)

	_, err = st.CreateComment(ctx, 1, model.NewComment{Author: ptr("rogersop")})
	assert.Equal(t, store.CodeNotNullViolation, store.CodeOf(err))

	_, err = st.CreateComment(ctx, 5000, model.NewComment{Author: ptr("rogersop"), Body: ptr("x")})
	assert.Equal(t, store.CodeForeignKeyViolation, store.CodeOf(err))

	require.NoError(t, st.DeleteComment(ctx, 5))
	requireNotFound(t, st.DeleteComment(ctx, 5), "comment not found")
}

func TestExistenceChecks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, st.ArticleExists(ctx, 2))
	requireNotFound(t, st.ArticleExists(ctx, 5000), "not found")
	assert.NoError(t, st.UserExists(ctx, "lurker"))
	requireNotFound(t, st.UserExists(ctx, "roger"), "not found")
}

func TestSeedIsRepeatable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateComment(ctx, 3, model.NewComment{Author: ptr("rogersop"), Body: ptr("extra")})
	require.NoError(t, err)
	require.NoError(t, seed.LoadSample(ctx, st))

	comment, err := st.CreateComment(ctx, 3, model.NewComment{Author: ptr("rogersop"), Body: ptr("extra")})
	require.NoError(t, err)
	assert.Equal(t, int64(19), comment.ID)
}
