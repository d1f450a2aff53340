package notes

import (
	"reflect"
	"strings"
	"testing"

	"github.com/arjun-iyer/noteforge/internal/kbtypes"
)

func mustParse(t *testing.T, content string) ParsedNote {
	t.Helper()
	note, err := New().Parse(content, "fallback")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return note
}

func TestParseFrontmatter(t *testing.T) {
	note := mustParse(t, `---
title: Rust Ownership
tags:
  - lang/rust
  - "#memory"
aliases:
  - ownership-notes
rating: 5
---
Body text here.
`)

	if note.Title != "Rust Ownership" {
		t.Errorf("title = %q", note.Title)
	}
	if note.Frontmatter["rating"] != 5 {
		t.Errorf("custom field rating = %v", note.Frontmatter["rating"])
	}
	if !reflect.DeepEqual(note.Aliases, []string{"ownership-notes"}) {
		t.Errorf("aliases = %v", note.Aliases)
	}

	// "lang/rust" expands to its parent prefix; "#memory" loses its hash.
	wantTags := map[string]bool{"lang/rust": true, "lang": true, "memory": true}
	for _, tag := range note.Tags {
		if !wantTags[tag] {
			t.Errorf("unexpected tag %q", tag)
		}
		delete(wantTags, tag)
	}
	if len(wantTags) != 0 {
		t.Errorf("missing tags: %v", wantTags)
	}
}

func TestParseWithoutFrontmatter(t *testing.T) {
	note := mustParse(t, "Just a plain note with no metadata.")
	if note.Title != "fallback" {
		t.Errorf("expected fallback title, got %q", note.Title)
	}
	if len(note.Frontmatter) != 0 {
		t.Errorf("expected empty frontmatter, got %v", note.Frontmatter)
	}
	if !strings.Contains(note.PlainText, "plain note") {
		t.Errorf("plain text lost content: %q", note.PlainText)
	}
}

func TestParseFrontmatterAfterBOM(t *testing.T) {
	note := mustParse(t, "\uFEFF---\ntitle: BOM Note\n---\nBody.\n")
	if note.Title != "BOM Note" {
		t.Errorf("expected frontmatter parsed past a UTF-8 BOM, got title %q", note.Title)
	}
}

func TestMalformedFrontmatterDegrades(t *testing.T) {
	content := "---\ntags: [unclosed\n---\nBody survives.\n"
	note := mustParse(t, content)
	if len(note.Frontmatter) != 0 {
		t.Errorf("expected malformed frontmatter to degrade to empty, got %v", note.Frontmatter)
	}
	if note.RawContent != content {
		t.Error("raw content must be preserved verbatim")
	}
}

func TestParseWikilinks(t *testing.T) {
	note := mustParse(t, "See [[doc2]], [[doc3#Setup]] and [[doc4|the fourth note]].")

	want := []Wikilink{
		{Target: "doc2", Kind: kbtypes.RelWikilink},
		{Target: "doc3", Header: "Setup", Kind: kbtypes.RelWikilinkHeader},
		{Target: "doc4", Display: "the fourth note", Kind: kbtypes.RelWikilink},
	}
	if !reflect.DeepEqual(note.Wikilinks, want) {
		t.Errorf("wikilinks = %+v, want %+v", note.Wikilinks, want)
	}
}

func TestParseInlineTags(t *testing.T) {
	note := mustParse(t, "Notes on #golang and #lang/rust/memory plus #筆記 here.")

	got := map[string]bool{}
	for _, tag := range note.Tags {
		got[tag] = true
	}
	for _, want := range []string{"golang", "lang/rust/memory", "lang/rust", "lang", "筆記"} {
		if !got[want] {
			t.Errorf("missing tag %q in %v", want, note.Tags)
		}
	}
}

func TestParseHeadingsOrdered(t *testing.T) {
	note := mustParse(t, "# Top\n\ntext\n\n## Middle\n\n### Deep\n")
	want := []kbtypes.Heading{
		{Level: 1, Text: "Top"},
		{Level: 2, Text: "Middle"},
		{Level: 3, Text: "Deep"},
	}
	if !reflect.DeepEqual(note.Headings, want) {
		t.Errorf("headings = %+v, want %+v", note.Headings, want)
	}
}

func TestParseImages(t *testing.T) {
	note := mustParse(t, "![300](shot.png) and ![300x200](wide.jpg) and ![a diagram](fig.png)")

	if len(note.Images) != 3 {
		t.Fatalf("expected 3 images, got %+v", note.Images)
	}
	if note.Images[0].Kind != "obsidian_image" || note.Images[0].Size != "300" {
		t.Errorf("first image = %+v", note.Images[0])
	}
	if note.Images[1].Size != "300x200" {
		t.Errorf("second image = %+v", note.Images[1])
	}
	if note.Images[2].Kind != "markdown_image" || note.Images[2].Alt != "a diagram" {
		t.Errorf("third image = %+v", note.Images[2])
	}
}

func TestDegradeSyntax(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"titled code block", "```go title:\"main.go\"\nfmt.Println()\n```", "```go\nfmt.Println()\n```"},
		{"callout", "> [!note] Remember this", "> Remember this"},
		{"embed", "![[attachment]]", "[[attachment]]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			note := mustParse(t, c.in)
			if !strings.Contains(note.ParsedContent, c.want) {
				t.Errorf("parsed content = %q, want it to contain %q", note.ParsedContent, c.want)
			}
		})
	}
}

func TestPlainTextProjection(t *testing.T) {
	note := mustParse(t, `# Title

Some **bold** and *italic* text with a [link](https://example.com).

`+"```"+`python
print("stripped")
`+"```"+`

Inline `+"`code`"+` goes too. [[target|shown text]] stays as display.

<div>html dropped</div>


Trailing after many blanks.`)

	plain := note.PlainText
	for _, banned := range []string{"**", "```", "print(", "`code`", "<div>", "https://example.com", "# Title"} {
		if strings.Contains(plain, banned) {
			t.Errorf("plain text still contains %q: %q", banned, plain)
		}
	}
	for _, kept := range []string{"bold", "italic", "link", "shown text", "Trailing after many blanks."} {
		if !strings.Contains(plain, kept) {
			t.Errorf("plain text lost %q: %q", kept, plain)
		}
	}
	if strings.Contains(plain, "\n\n\n") {
		t.Errorf("blank runs not collapsed: %q", plain)
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("# Heading\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("unexpected html: %q", html)
	}
}
