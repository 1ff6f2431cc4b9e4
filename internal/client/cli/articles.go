package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iudanet/refkeeper/internal/client/api"
	"github.com/iudanet/refkeeper/internal/models"
	"github.com/iudanet/refkeeper/internal/validation"
	pkgapi "github.com/iudanet/refkeeper/pkg/api"
)

// articleFlags значения флагов add и update
type articleFlags struct {
	title    string
	date     string
	doi      string
	journal  string
	abstract string
	authors  []string
	keywords []string
	pages    []string
}

func (f *articleFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "Article title")
	fs.StringVar(&f.date, "date", "", "Publication date (YYYY-MM-DD, YYYY-MM or YYYY)")
	fs.StringVar(&f.doi, "doi", "", "DOI, e.g. 10.1000/xyz123")
	fs.StringVar(&f.journal, "journal", "", "Journal")
	fs.StringVar(&f.abstract, "abstract", "", "Abstract")
	fs.StringSliceVar(&f.authors, "authors", nil, "Comma-separated list of authors")
	fs.StringSliceVar(&f.keywords, "keywords", nil, "Comma-separated list of keywords")
	fs.StringSliceVar(&f.pages, "pages", nil, "Comma-separated list of pages or page ranges")
}

func (c *Cli) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd.Context())
		},
	}
}

func (c *Cli) runList(ctx context.Context) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	articles, err := c.apiClient.ListArticles(ctx)
	if err != nil {
		return serverError(err)
	}

	c.io.Println("=== Saved Articles ===")
	c.io.Println()

	if len(articles) == 0 {
		c.io.Println("No articles found.")
		return nil
	}

	printArticleTable(c.io, articles)
	c.io.Println()
	c.io.Printf("Total: %d article(s)\n", len(articles))

	return nil
}

func (c *Cli) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show full article details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGet(cmd.Context(), args[0])
		},
	}
}

func (c *Cli) runGet(ctx context.Context, id string) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	article, err := c.apiClient.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("article %s not found", id)
		}
		return serverError(err)
	}

	printArticle(c.io, article)
	return nil
}

func (c *Cli) addCommand() *cobra.Command {
	var flags articleFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add new article",
		Long:  "Add new article. Required fields missing from flags are requested interactively.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdd(cmd.Context(), flags)
		},
	}
	flags.register(cmd.Flags())

	return cmd
}

func (c *Cli) runAdd(ctx context.Context, flags articleFlags) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	title, err := c.valueOrPrompt(flags.title, "Title: ")
	if err != nil {
		return err
	}
	if err := validation.ValidateTitle(strings.TrimSpace(title)); err != nil {
		return fmt.Errorf("invalid title: %w", err)
	}

	authors := validation.CleanList(flags.authors)
	if len(authors) == 0 {
		input, err := c.io.ReadInput("Authors (comma-separated): ")
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		authors = splitList(input)
	}
	if err := validation.ValidateAuthors(authors); err != nil {
		return fmt.Errorf("invalid authors: %w", err)
	}

	date, err := c.valueOrPrompt(flags.date, "Publication date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	if _, err := validation.ParsePublicationDate(strings.TrimSpace(date)); err != nil {
		return fmt.Errorf("invalid publication date: %w", err)
	}

	doi, err := c.valueOrPrompt(flags.doi, "DOI: ")
	if err != nil {
		return err
	}
	if err := validation.ValidateDOI(strings.TrimSpace(doi)); err != nil {
		return fmt.Errorf("invalid doi: %w", err)
	}

	article, err := c.apiClient.CreateArticle(ctx, pkgapi.ArticleRequest{
		Title:           strings.TrimSpace(title),
		PublicationDate: strings.TrimSpace(date),
		Abstract:        strings.TrimSpace(flags.abstract),
		Journal:         strings.TrimSpace(flags.journal),
		DOI:             strings.TrimSpace(doi),
		Authors:         authors,
		Keywords:        validation.CleanList(flags.keywords),
		Pages:           validation.CleanList(flags.pages),
	})
	if err != nil {
		return serverError(err)
	}

	c.io.Println("✓ Article saved!")
	c.io.Printf("ID: %s\n", article.ID)

	return nil
}

func (c *Cli) updateCommand() *cobra.Command {
	var flags articleFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update article fields",
		Long:  "Update article fields. Only the flags given on the command line are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := buildPatch(cmd.Flags(), flags)
			return c.runUpdate(cmd.Context(), args[0], patch)
		},
	}
	flags.register(cmd.Flags())

	return cmd
}

// buildPatch включает в запрос только явно заданные флаги
func buildPatch(fs *pflag.FlagSet, flags articleFlags) pkgapi.ArticlePatchRequest {
	var patch pkgapi.ArticlePatchRequest

	str := func(name, value string) *string {
		if !fs.Changed(name) {
			return nil
		}
		v := strings.TrimSpace(value)
		return &v
	}
	list := func(name string, value []string) *[]string {
		if !fs.Changed(name) {
			return nil
		}
		v := validation.CleanList(value)
		return &v
	}

	patch.Title = str("title", flags.title)
	patch.PublicationDate = str("date", flags.date)
	patch.DOI = str("doi", flags.doi)
	patch.Journal = str("journal", flags.journal)
	patch.Abstract = str("abstract", flags.abstract)
	patch.Authors = list("authors", flags.authors)
	patch.Keywords = list("keywords", flags.keywords)
	patch.Pages = list("pages", flags.pages)

	return patch
}

func patchEmpty(p pkgapi.ArticlePatchRequest) bool {
	return p.Title == nil && p.PublicationDate == nil && p.DOI == nil && p.Journal == nil &&
		p.Abstract == nil && p.Authors == nil && p.Keywords == nil && p.Pages == nil
}

func (c *Cli) runUpdate(ctx context.Context, id string, patch pkgapi.ArticlePatchRequest) error {
	if patchEmpty(patch) {
		return fmt.Errorf("nothing to update, pass at least one field flag")
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	article, err := c.apiClient.UpdateArticle(ctx, id, patch)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("article %s not found", id)
		}
		return serverError(err)
	}

	c.io.Println("✓ Article updated!")
	printArticle(c.io, article)

	return nil
}

func (c *Cli) deleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDelete(cmd.Context(), args[0], force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}

func (c *Cli) runDelete(ctx context.Context, id string, force bool) error {
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	if !force {
		answer, err := c.io.ReadInput(fmt.Sprintf("Delete article %s? [y/N]: ", id))
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			c.io.Println("Cancelled.")
			return nil
		}
	}

	if err := c.apiClient.DeleteArticle(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("article %s not found", id)
		}
		return serverError(err)
	}

	c.io.Println("✓ Article deleted.")
	return nil
}

func (c *Cli) searchCommand() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search articles by title or DOI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd.Context(), args[0], by)
		},
	}
	cmd.Flags().StringVar(&by, "by", string(models.SearchByTitle), "Field to search: title or doi")

	return cmd
}

func (c *Cli) runSearch(ctx context.Context, term, by string) error {
	field, ok := models.ParseSearchField(by)
	if !ok {
		return fmt.Errorf("invalid search field %q, use title or doi", by)
	}
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("search term cannot be empty")
	}
	if _, err := c.requireSession(ctx); err != nil {
		return err
	}

	articles, err := c.apiClient.Search(ctx, strings.TrimSpace(term), string(field))
	if err != nil {
		// сервер отвечает 404 на пустой результат
		if errors.Is(err, api.ErrNotFound) {
			c.io.Println("No articles found.")
			return nil
		}
		return serverError(err)
	}

	printArticleTable(c.io, articles)
	c.io.Println()
	c.io.Printf("Found: %d article(s)\n", len(articles))

	return nil
}

func splitList(s string) []string {
	return validation.CleanList(strings.Split(s, ","))
}
