package notes

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// htmlRenderer is a single shared goldmark instance with syntax
// highlighting enabled, used to produce citation-preview HTML from a
// note's parsed (degraded-syntax) content. goldmark.Convert is safe for
// concurrent use once configured, so one package-level instance is enough.
var htmlRenderer = sync.OnceValue(func() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(highlighting.Highlighting),
	)
})

// RenderHTML converts a note's parsed content to HTML, for citation
// previews in the RAG response shaper. Callers should pass ParsedContent,
// not RawContent, so Obsidian-only syntax has already been degraded to
// plain Markdown.
func RenderHTML(parsedContent string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer().Convert([]byte(parsedContent), &buf); err != nil {
		return "", fmt.Errorf("notes: render html: %w", err)
	}
	return buf.String(), nil
}
