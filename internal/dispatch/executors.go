package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/themislegal/themis/internal/legifrance"
)

// maxArticleFetch bounds the individual re-fetch pass when the consult
// API returns a text skeleton without article bodies.
const maxArticleFetch = 100

func (d *Dispatcher) execute(ctx context.Context, tool string, args map[string]any) (ToolResult, error) {
	switch tool {
	case "search_texts":
		return d.searchTexts(ctx, args)
	case "get_code":
		return d.getCode(ctx, args)
	case "get_article":
		return d.getArticle(ctx, args)
	case "get_full_text":
		return d.getFullText(ctx, args)
	case "list_codes":
		return d.listCodes(ctx, args)
	default:
		return ToolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, tool)
	}
}

func (d *Dispatcher) searchTexts(ctx context.Context, args map[string]any) (ToolResult, error) {
	q := legifrance.SearchQuery{
		Query:    stringArg(args, "query"),
		Fond:     stringArg(args, "fond"),
		CodeName: stringArg(args, "code"),
		PageSize: intArg(args, "page_size", 10),
	}
	resp, err := d.client.Search(ctx, q)
	if err != nil {
		return ToolResult{}, err
	}

	type hit struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Nature string `json:"nature,omitempty"`
		Date   string `json:"date,omitempty"`
		URL    string `json:"url"`
	}
	out := struct {
		Total   int   `json:"total"`
		Results []hit `json:"results"`
	}{Total: intField(resp, "totalResultNumber")}

	var sources []Source
	for _, raw := range sliceField(resp, "results") {
		r, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, title := firstTitle(r)
		if id == "" {
			continue
		}
		h := hit{
			ID:     id,
			Title:  title,
			Nature: stringField(r, "nature"),
			Date:   normalizeDate(r["date"]),
			URL:    legifrance.PublicURL(id),
		}
		out.Results = append(out.Results, h)
		sources = append(sources, Source{TextID: id, Title: title, Date: h.Date, URL: h.URL})
	}

	content, _ := json.Marshal(out)
	return ToolResult{Content: string(content), Sources: sources}, nil
}

func (d *Dispatcher) getCode(ctx context.Context, args map[string]any) (ToolResult, error) {
	name := stringArg(args, "code")
	textID, ok := legifrance.CodeIDs[name]
	if !ok {
		return ToolResult{}, fmt.Errorf("%w: unknown code %q", ErrInvalidArguments, name)
	}
	date := stringArg(args, "date")
	resp, err := d.client.GetCode(ctx, textID, date)
	if err != nil {
		return ToolResult{}, err
	}

	title := stringField(resp, "title")
	if title == "" {
		title = legifrance.CodeNames[name]
	}
	var toc strings.Builder
	writeSections(&toc, sliceField(resp, "sections"), 0)

	out := struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Date  string `json:"date,omitempty"`
		TOC   string `json:"toc"`
		URL   string `json:"url"`
	}{ID: textID, Title: title, Date: date, TOC: toc.String(), URL: legifrance.PublicURL(textID)}

	content, _ := json.Marshal(out)
	return ToolResult{
		Content: string(content),
		Sources: []Source{{TextID: textID, Title: title, Date: date, URL: out.URL}},
	}, nil
}

func (d *Dispatcher) getArticle(ctx context.Context, args map[string]any) (ToolResult, error) {
	id := stringArg(args, "article_id")
	resp, err := d.client.GetArticle(ctx, id)
	if err != nil {
		return ToolResult{}, err
	}
	article, _ := resp["article"].(map[string]any)
	if article == nil {
		article = resp
	}

	num := stringField(article, "num")
	title := "Article " + num
	if num == "" {
		title = stringField(article, "titre")
	}
	out := struct {
		ID   string `json:"id"`
		Num  string `json:"num,omitempty"`
		Text string `json:"text"`
		URL  string `json:"url"`
	}{
		ID:   id,
		Num:  num,
		Text: articleText(article),
		URL:  legifrance.PublicURL(id),
	}

	content, _ := json.Marshal(out)
	return ToolResult{
		Content: string(content),
		Sources: []Source{{
			TextID: id,
			Title:  title,
			Date:   normalizeDate(article["dateDebut"]),
			URL:    out.URL,
		}},
	}, nil
}

func (d *Dispatcher) getFullText(ctx context.Context, args map[string]any) (ToolResult, error) {
	id := stringArg(args, "text_id")
	date := stringArg(args, "date")

	var (
		resp map[string]any
		err  error
	)
	if strings.HasPrefix(id, "JORFTEXT") || strings.HasPrefix(id, "JORFCONT") {
		resp, err = d.client.GetJORF(ctx, id)
	} else {
		resp, err = d.client.GetLawDecree(ctx, id, date)
	}
	if err != nil {
		return ToolResult{}, err
	}

	title := stringField(resp, "title")
	if title == "" {
		title = stringField(resp, "titre")
	}

	type art struct {
		ID   string `json:"id,omitempty"`
		Num  string `json:"num,omitempty"`
		Text string `json:"text"`
	}
	var articles []art
	var missing []string
	collectArticles(resp, func(a map[string]any) {
		entry := art{
			ID:   stringField(a, "id"),
			Num:  stringField(a, "num"),
			Text: articleText(a),
		}
		if entry.Text == "" && entry.ID != "" {
			missing = append(missing, entry.ID)
		}
		articles = append(articles, entry)
	})

	// The consult endpoints sometimes return the structure without the
	// article bodies. Re-fetch them one by one, within the cap.
	if len(missing) > 0 && len(articles) <= maxArticleFetch {
		texts := make(map[string]string, len(missing))
		for _, artID := range missing {
			single, err := d.client.GetArticle(ctx, artID)
			if err != nil {
				return ToolResult{}, err
			}
			if a, ok := single["article"].(map[string]any); ok {
				texts[artID] = articleText(a)
			}
		}
		for i := range articles {
			if articles[i].Text == "" {
				articles[i].Text = texts[articles[i].ID]
			}
		}
	}

	out := struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Date     string `json:"date,omitempty"`
		Articles []art  `json:"articles"`
		URL      string `json:"url"`
	}{
		ID:       id,
		Title:    title,
		Date:     normalizeDate(resp["dateTexte"]),
		Articles: articles,
		URL:      legifrance.PublicURL(id),
	}
	if out.Date == "" {
		out.Date = date
	}

	content, _ := json.Marshal(out)
	return ToolResult{
		Content: string(content),
		Sources: []Source{{TextID: id, Title: title, Date: out.Date, URL: out.URL}},
	}, nil
}

func (d *Dispatcher) listCodes(ctx context.Context, args map[string]any) (ToolResult, error) {
	page := intArg(args, "page", 1)
	pageSize := intArg(args, "page_size", 20)
	resp, err := d.client.ListCodes(ctx, page, pageSize)
	if err != nil {
		return ToolResult{}, err
	}

	type code struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		State string `json:"state,omitempty"`
	}
	out := struct {
		Total int    `json:"total"`
		Codes []code `json:"codes"`
	}{Total: intField(resp, "totalResultNumber")}

	for _, raw := range sliceField(resp, "results") {
		r, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		c := code{
			ID:    stringField(r, "id"),
			Title: stringField(r, "titre"),
			State: stringField(r, "etat"),
		}
		if c.Title == "" {
			c.Title = stringField(r, "titreLong")
		}
		if c.ID != "" || c.Title != "" {
			out.Codes = append(out.Codes, c)
		}
	}

	content, _ := json.Marshal(out)
	return ToolResult{Content: string(content)}, nil
}

// collectArticles walks the nested sections/articles structure the
// consult endpoints return, depth first, preserving document order.
func collectArticles(node map[string]any, visit func(map[string]any)) {
	for _, raw := range sliceField(node, "articles") {
		if a, ok := raw.(map[string]any); ok {
			visit(a)
		}
	}
	for _, raw := range sliceField(node, "sections") {
		if s, ok := raw.(map[string]any); ok {
			collectArticles(s, visit)
		}
	}
}

func writeSections(b *strings.Builder, sections []any, depth int) {
	if depth > 4 {
		return
	}
	for _, raw := range sections {
		s, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		title := stringField(s, "title")
		if title == "" {
			title = stringField(s, "titre")
		}
		if title != "" {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString("- ")
			b.WriteString(title)
			if n := len(sliceField(s, "articles")); n > 0 {
				fmt.Fprintf(b, " (%d articles)", n)
			}
			b.WriteString("\n")
		}
		writeSections(b, sliceField(s, "sections"), depth+1)
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func articleText(a map[string]any) string {
	text := stringField(a, "texte")
	if text == "" {
		text = stringField(a, "texteHtml")
	}
	if text == "" {
		text = stringField(a, "content")
	}
	text = tagPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// firstTitle digs the first title entry from a search result, which
// nests identifiers under titles[].
func firstTitle(r map[string]any) (id, title string) {
	for _, raw := range sliceField(r, "titles") {
		t, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		return stringField(t, "id"), stringField(t, "title")
	}
	return stringField(r, "id"), stringField(r, "title")
}

// normalizeDate renders the date forms the API mixes (epoch millis,
// ISO strings) as YYYY-MM-DD. Unknown forms come back empty.
func normalizeDate(v any) string {
	switch d := v.(type) {
	case string:
		if len(d) >= 10 {
			if _, err := time.Parse("2006-01-02", d[:10]); err == nil {
				return d[:10]
			}
		}
		return ""
	case float64:
		if d <= 0 {
			return ""
		}
		return time.UnixMilli(int64(d)).UTC().Format("2006-01-02")
	default:
		return ""
	}
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	if f, ok := m[key].(float64); ok {
		return int(f)
	}
	return 0
}

func sliceField(m map[string]any, key string) []any {
	s, _ := m[key].([]any)
	return s
}
