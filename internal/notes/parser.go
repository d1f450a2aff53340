// Package notes parses Obsidian-flavored Markdown: YAML frontmatter,
// wikilinks, nested tags, Obsidian-sized images, and a handful of
// degraded-but-tolerated constructs (callouts, embeds, titled code blocks).
// It also projects each note down to plain text for embedding.
package notes

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arjun-iyer/noteforge/internal/kbtypes"
)

// Wikilink is an occurrence of Obsidian's [[target]] / [[target#header]] /
// [[target|display]] syntax.
type Wikilink struct {
	Target  string
	Header  string // empty unless the link points at a specific heading
	Display string // empty unless the link carries a pipe-display override
	Kind    kbtypes.RelationshipKind
}

// Image is an embedded image reference, Obsidian-sized (![100](path)) or
// standard Markdown (![alt](path)).
type Image struct {
	Path string
	Size string // Obsidian width/"WxH" spec, empty for standard images
	Alt  string
	Kind string // "obsidian_image" or "markdown_image"
}

// ParsedNote is the result of parsing one Markdown file.
type ParsedNote struct {
	RawContent    string
	ParsedContent string // after degrading unsupported syntax
	PlainText     string // for embedding

	Frontmatter map[string]any

	Title     string
	Tags      []string
	Aliases   []string
	Headings  []kbtypes.Heading
	Wikilinks []Wikilink
	Images    []Image
}

var (
	wikilinkPattern       = regexp.MustCompile(`\[\[([^#\]|]+?)(?:#([^\]|]+?))?(?:\|([^\]]+?))?\]\]`)
	tagPattern            = regexp.MustCompile(`#([\p{L}\p{N}_/-]+)`)
	obsidianImagePattern  = regexp.MustCompile(`!\[(\d+(?:x\d+)?)\]\(([^)]+)\)`)
	markdownImagePattern  = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	codeBlockTitlePattern = regexp.MustCompile("```(\\w+)\\s+title:\"([^\"]+)\"")
	calloutPattern        = regexp.MustCompile(`(?m)^>\s*\[!(\w+)\]\s*(.*)$`)
	embedPattern          = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
	headingPattern        = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

	boldPattern        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicStarPattern  = regexp.MustCompile(`\*([^*]+)\*`)
	boldUnderPattern   = regexp.MustCompile(`__([^_]+)__`)
	italicUnderPattern = regexp.MustCompile(`_([^_]+)_`)
	strikePattern      = regexp.MustCompile(`~~([^~]+)~~`)
	mdLinkPattern      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingLinePattern = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
	codeFencePattern   = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern  = regexp.MustCompile("`[^`]+`")
	blankRunPattern    = regexp.MustCompile(`\n\s*\n+`)
)

// Parser parses Obsidian Markdown content. It is stateless and safe for
// concurrent use.
type Parser struct{}

// New returns a ready-to-use Parser.
func New() *Parser {
	return &Parser{}
}

// Parse parses raw Markdown content. fallbackTitle is used when the
// frontmatter carries no "title" field (typically the file's basename).
func (p *Parser) Parse(content string, fallbackTitle string) (ParsedNote, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return ParsedNote{}, err
	}

	title := fallbackTitle
	if t, ok := fm["title"].(string); ok && t != "" {
		title = t
	}

	tags := extractTagsFromFrontmatter(fm)
	tags = append(tags, extractInlineTags(body)...)
	tags = dedupe(tags)

	aliases := extractAliases(fm)
	wikilinks := extractWikilinks(body)
	headings := p.extractHeadings(body)
	images := extractImages(body)

	parsedContent := degradeSyntax(body)
	plainText := toPlainText(parsedContent)

	return ParsedNote{
		RawContent:    content,
		ParsedContent: parsedContent,
		PlainText:     plainText,
		Frontmatter:   fm,
		Title:         title,
		Tags:          tags,
		Aliases:       aliases,
		Headings:      headings,
		Wikilinks:     wikilinks,
		Images:        images,
	}, nil
}

// splitFrontmatter separates a leading "---\n...\n---" YAML block from the
// rest of the document. Content without frontmatter delimiters is returned
// unchanged with an empty frontmatter map.
func splitFrontmatter(content string) (map[string]any, string, error) {
	const delim = "---"
	trimmed := strings.TrimLeft(content, "\uFEFF \t\r\n")
	if !strings.HasPrefix(trimmed, delim) {
		return map[string]any{}, content, nil
	}

	rest := trimmed[len(delim):]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	end := strings.Index(rest, "\n"+delim)
	if end == -1 {
		return map[string]any{}, content, nil
	}

	yamlBlock := rest[:end]
	body := rest[end+1+len(delim):]
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")

	fm := map[string]any{}
	if strings.TrimSpace(yamlBlock) != "" {
		if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
			// Malformed frontmatter degrades to "no frontmatter" rather
			// than failing the whole note.
			return map[string]any{}, content, nil
		}
	}
	return fm, body, nil
}

// extractTagsFromFrontmatter reads the "tags" field (string or list) and
// expands nested tags into their parent prefixes, e.g. "lang/go" also
// yields "lang".
func extractTagsFromFrontmatter(fm map[string]any) []string {
	var raw []string
	switch v := fm["tags"].(type) {
	case string:
		raw = []string{v}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	var out []string
	for _, tag := range raw {
		tag = strings.TrimPrefix(tag, "#")
		out = appendExpanded(out, tag)
	}
	return out
}

func extractInlineTags(body string) []string {
	var out []string
	for _, m := range tagPattern.FindAllStringSubmatch(body, -1) {
		out = appendExpanded(out, m[1])
	}
	return out
}

// appendExpanded appends tag and, for nested tags ("a/b/c"), every parent
// prefix ("a", "a/b") not already present.
func appendExpanded(tags []string, tag string) []string {
	present := func(t string) bool {
		for _, existing := range tags {
			if existing == t {
				return true
			}
		}
		return false
	}
	if !present(tag) {
		tags = append(tags, tag)
	}
	if strings.Contains(tag, "/") {
		parts := strings.Split(tag, "/")
		for i := 1; i < len(parts); i++ {
			parent := strings.Join(parts[:i], "/")
			if !present(parent) {
				tags = append(tags, parent)
			}
		}
	}
	return tags
}

func extractAliases(fm map[string]any) []string {
	switch v := fm["aliases"].(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func extractWikilinks(body string) []Wikilink {
	var out []Wikilink
	for _, m := range wikilinkPattern.FindAllStringSubmatch(body, -1) {
		target, header, display := m[1], m[2], m[3]
		kind := kbtypes.RelWikilink
		if header != "" {
			kind = kbtypes.RelWikilinkHeader
		}
		out = append(out, Wikilink{
			Target:  strings.TrimSpace(target),
			Header:  header,
			Display: display,
			Kind:    kind,
		})
	}
	return out
}

// extractHeadings finds every ATX heading line (outside of code fences is
// not distinguished here, matching the original parser's behavior).
func (p *Parser) extractHeadings(body string) []kbtypes.Heading {
	var headings []kbtypes.Heading
	for _, m := range headingPattern.FindAllStringSubmatch(body, -1) {
		headings = append(headings, kbtypes.Heading{Level: len(m[1]), Text: strings.TrimSpace(m[2])})
	}
	return headings
}

func extractImages(body string) []Image {
	var out []Image
	seen := make(map[string]bool)

	for _, m := range obsidianImagePattern.FindAllStringSubmatch(body, -1) {
		size, path := m[1], m[2]
		out = append(out, Image{Path: path, Size: size, Kind: "obsidian_image"})
		seen[path] = true
	}
	for _, m := range markdownImagePattern.FindAllStringSubmatch(body, -1) {
		alt, path := m[1], m[2]
		if seen[path] {
			continue
		}
		out = append(out, Image{Path: path, Alt: alt, Kind: "markdown_image"})
		seen[path] = true
	}
	return out
}

// degradeSyntax handles P2 constructs: titled code blocks lose their
// title, callouts become plain blockquotes, and embeds become wikilinks.
func degradeSyntax(body string) string {
	body = codeBlockTitlePattern.ReplaceAllString(body, "```$1")
	body = calloutPattern.ReplaceAllString(body, "> $2")
	body = embedPattern.ReplaceAllString(body, "[[$1]]")
	return body
}

// toPlainText strips Markdown formatting, code, links and HTML for use as
// the embedding input.
func toPlainText(content string) string {
	text := codeFencePattern.ReplaceAllString(content, "")
	text = inlineCodePattern.ReplaceAllString(text, "")

	text = wikilinkPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := wikilinkPattern.FindStringSubmatch(m)
		if parts[3] != "" {
			return parts[3]
		}
		return parts[1]
	})

	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicStarPattern.ReplaceAllString(text, "$1")
	text = boldUnderPattern.ReplaceAllString(text, "$1")
	text = italicUnderPattern.ReplaceAllString(text, "$1")
	text = strikePattern.ReplaceAllString(text, "$1")

	text = mdLinkPattern.ReplaceAllString(text, "$1")
	text = markdownImagePattern.ReplaceAllString(text, "")
	text = headingLinePattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, "")

	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
