package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alphabot-ai/newsboard/internal/client"
	"github.com/alphabot-ai/newsboard/internal/store"
)

var articleQuery client.ArticleQuery

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List articles from a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, err := client.New(baseURL).GetArticles(articleQuery)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), articles)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTOPIC\tVOTES\tCOMMENTS\tAUTHOR\tTITLE")
		for _, a := range articles {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n", a.ID, a.Topic, a.Votes, a.CommentCount, a.Author, a.Title)
		}
		return w.Flush()
	},
}

var commentLimit int

var articleCmd = &cobra.Command{
	Use:   "article <id>",
	Short: "Show an article and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid article id %q", args[0])
		}
		c := client.New(baseURL)
		article, err := c.GetArticle(id)
		if err != nil {
			return err
		}
		comments, err := c.GetComments(id, commentLimit, 0)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"article": article, "comments": comments})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", article.Title)
		fmt.Fprintf(out, "by %s in %s, %d votes, %s\n\n", article.Author, article.Topic, article.Votes, article.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(out, "%s\n\n", article.Body)
		fmt.Fprintf(out, "%d comments\n", article.CommentCount)
		for _, cm := range comments {
			fmt.Fprintf(out, "  [%d] %s (%d): %s\n", cm.ID, cm.Author, cm.Votes, cm.Body)
		}
		return nil
	},
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := client.New(baseURL).GetTopics()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), topics)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tDESCRIPTION")
		for _, t := range topics {
			fmt.Fprintf(w, "%s\t%s\n", t.Slug, t.Description)
		}
		return w.Flush()
	},
}

var usersCmd = &cobra.Command{
	Use:   "users [username]",
	Short: "List users, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(baseURL)
		if len(args) == 1 {
			user, err := c.GetUser(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n%s\n", user.Username, user.Name, user.AvatarURL)
			return nil
		}

		users, err := c.GetUsers()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), users)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tNAME")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\n", u.Username, u.Name)
		}
		return w.Flush()
	},
}

func init() {
	articlesCmd.Flags().StringVar(&articleQuery.SortBy, "sort-by", "", "Sort column (default "+store.DefaultSort+")")
	articlesCmd.Flags().StringVar(&articleQuery.Order, "order", "", "asc or desc (default "+strings.ToLower(store.DefaultOrder)+")")
	articlesCmd.Flags().StringVar(&articleQuery.Topic, "topic", "", "Only articles with this topic")
	articlesCmd.Flags().IntVar(&articleQuery.Limit, "limit", 0, "Page size")
	articlesCmd.Flags().IntVarP(&articleQuery.Page, "page", "p", 0, "Zero-based page number")

	articleCmd.Flags().IntVar(&commentLimit, "comments", 10, "Number of comments to show")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
