package synthesis

import (
	"bytes"
	"fmt"
	"html/template"
	"os"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// ExportMarkdown writes the markdown document as-is.
func ExportMarkdown(markdown, path string) error {
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("writing markdown export: %w", err)
	}
	return nil
}

// ExportHTML renders the markdown to a standalone HTML document at path.
func ExportHTML(markdown, title, path string) error {
	out, err := RenderHTML(markdown, title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing HTML export: %w", err)
	}
	return nil
}

// RenderHTML renders the markdown as a standalone HTML document.
func RenderHTML(markdown, title string) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	tmpl, err := template.New("export").Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing export template: %w", err)
	}
	var out bytes.Buffer
	err = tmpl.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("executing export template: %w", err)
	}
	return out.Bytes(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; line-height: 1.6; }
h1, h2, h3 { font-family: -apple-system, "Segoe UI", sans-serif; }
h1 { border-bottom: 2px solid #8b0000; padding-bottom: .3rem; }
h2 { border-bottom: 1px solid #ddd; padding-bottom: .2rem; }
a { color: #8b0000; }
blockquote { border-left: 3px solid #8b0000; margin-left: 0; padding-left: 1rem; color: #555; }
code { background: #f4f4f4; padding: .1rem .3rem; border-radius: 3px; }
pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; border-radius: 4px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`
