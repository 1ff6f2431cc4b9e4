package cli

import (
	"io"
	"strings"
	"text/tabwriter"

	"github.com/iudanet/refkeeper/internal/client/iocli"
	pkgapi "github.com/iudanet/refkeeper/pkg/api"
)

const (
	dateLayout     = "2006-01-02"
	maxTitleColumn = 60
)

func printArticleTable(w io.Writer, articles []pkgapi.Article) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = io.WriteString(tw, "ID\tTITLE\tDOI\tDATE\n")
	for _, a := range articles {
		_, _ = io.WriteString(tw, strings.Join([]string{
			a.ID,
			truncate(a.Title, maxTitleColumn),
			a.DOI,
			a.PublicationDate.Format(dateLayout),
		}, "\t")+"\n")
	}
	_ = tw.Flush()
}

func printArticle(out iocli.IO, a *pkgapi.Article) {
	out.Printf("ID:               %s\n", a.ID)
	out.Printf("Title:            %s\n", a.Title)
	out.Printf("Authors:          %s\n", strings.Join(a.Authors, ", "))
	out.Printf("Publication date: %s\n", a.PublicationDate.Format(dateLayout))
	out.Printf("DOI:              %s\n", a.DOI)
	if a.Journal != "" {
		out.Printf("Journal:          %s\n", a.Journal)
	}
	if len(a.Pages) > 0 {
		out.Printf("Pages:            %s\n", strings.Join(a.Pages, ", "))
	}
	if len(a.Keywords) > 0 {
		out.Printf("Keywords:         %s\n", strings.Join(a.Keywords, ", "))
	}
	if a.Abstract != "" {
		out.Printf("Abstract:         %s\n", a.Abstract)
	}
	out.Printf("Created:          %s\n", a.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	out.Printf("Updated:          %s\n", a.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
}

// truncate обрезает строку до n рун
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
