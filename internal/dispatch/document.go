package dispatch

import (
	"context"
	"strings"

	"github.com/themislegal/themis/internal/legifrance"
	"github.com/themislegal/themis/internal/progress"
)

// Article is one article of a fetched document.
type Article struct {
	ID   string
	Num  string
	Text string
}

// Document is a full legal text with its articles in document order.
type Document struct {
	ID       string
	Title    string
	Date     string
	URL      string
	Articles []Article
}

// FetchDocument retrieves a complete text, re-fetching every article
// body individually. Unlike the get_full_text tool it has no article
// cap: it is meant for offline fetches, with reporter feedback since
// large codes take minutes. Known code ids go through the code consult
// endpoint, JORF ids through jorf, everything else through lawDecree.
func FetchDocument(ctx context.Context, client *legifrance.Client, textID, date string, rep progress.Reporter) (*Document, error) {
	var (
		resp map[string]any
		err  error
	)
	switch {
	case strings.HasPrefix(textID, "JORFTEXT"), strings.HasPrefix(textID, "JORFCONT"):
		resp, err = client.GetJORF(ctx, textID)
	case isKnownCode(textID):
		resp, err = client.GetCode(ctx, textID, date)
	default:
		resp, err = client.GetLawDecree(ctx, textID, date)
	}
	if err != nil {
		return nil, err
	}

	title := stringField(resp, "title")
	if title == "" {
		title = stringField(resp, "titre")
	}
	doc := &Document{
		ID:    textID,
		Title: title,
		Date:  normalizeDate(resp["dateTexte"]),
		URL:   legifrance.PublicURL(textID),
	}
	if doc.Date == "" {
		doc.Date = date
	}

	collectArticles(resp, func(a map[string]any) {
		doc.Articles = append(doc.Articles, Article{
			ID:   stringField(a, "id"),
			Num:  stringField(a, "num"),
			Text: articleText(a),
		})
	})

	if rep != nil {
		rep.Start(len(doc.Articles))
		defer rep.Finish()
	}
	for i := range doc.Articles {
		art := &doc.Articles[i]
		if art.Text == "" && art.ID != "" {
			single, err := client.GetArticle(ctx, art.ID)
			if err != nil {
				return nil, err
			}
			if a, ok := single["article"].(map[string]any); ok {
				art.Text = articleText(a)
				if art.Num == "" {
					art.Num = stringField(a, "num")
				}
			}
		}
		if rep != nil {
			label := art.Num
			if label == "" {
				label = art.ID
			}
			rep.Update(i+1, "Article "+label)
		}
	}
	return doc, nil
}

// Markdown renders the document for offline reading.
func (d *Document) Markdown() string {
	var b strings.Builder
	b.WriteString("# " + d.Title + "\n\n")
	if d.Date != "" {
		b.WriteString("*" + d.Date + "*\n\n")
	}
	if d.URL != "" {
		b.WriteString("[" + d.ID + "](" + d.URL + ")\n\n")
	}
	for _, art := range d.Articles {
		if art.Num != "" {
			b.WriteString("## Article " + art.Num + "\n\n")
		} else if art.ID != "" {
			b.WriteString("## " + art.ID + "\n\n")
		}
		if art.Text != "" {
			b.WriteString(art.Text + "\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func isKnownCode(textID string) bool {
	for _, id := range legifrance.CodeIDs {
		if id == textID {
			return true
		}
	}
	return false
}
