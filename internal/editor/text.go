package editor

import (
	"fmt"
	"unicode/utf8"
)

// Selection is a half-open rune range in the content.
type Selection struct {
	Start, End int
}

// Caret returns an empty selection at pos.
func Caret(pos int) Selection { return Selection{Start: pos, End: pos} }

func (s Selection) Empty() bool { return s.Start == s.End }

func (s Selection) clamp(n int) Selection {
	if s.Start > s.End {
		s.Start, s.End = s.End, s.Start
	}
	s.Start = min(max(s.Start, 0), n)
	s.End = min(max(s.End, 0), n)
	return s
}

// InsertAt replaces sel in content with text. The returned cursor sits at
// the end of the inserted text moved by offset, clamped to the result.
func InsertAt(content string, sel Selection, text string, offset int) (string, int) {
	runes := []rune(content)
	sel = sel.clamp(len(runes))
	out := make([]rune, 0, len(runes)+utf8.RuneCountInString(text))
	out = append(out, runes[:sel.Start]...)
	out = append(out, []rune(text)...)
	out = append(out, runes[sel.End:]...)
	cursor := sel.Start + utf8.RuneCountInString(text) + offset
	cursor = min(max(cursor, 0), len(out))
	return string(out), cursor
}

// Snippet is a piece of markup and the cursor offset to apply after it is
// inserted. A negative offset moves back into the snippet.
type Snippet struct {
	Text   string
	Offset int
}

// Wrap surrounds selected text, or a placeholder when nothing is selected.
// The cursor lands before the closing marker.
func Wrap(open, close, placeholder, selected string) Snippet {
	inner := selected
	if inner == "" {
		inner = placeholder
	}
	return Snippet{Text: open + inner + close, Offset: -utf8.RuneCountInString(close)}
}

var blockSnippets = map[string]Snippet{
	"h1":        {Text: "# "},
	"h2":        {Text: "## "},
	"h3":        {Text: "### "},
	"quote":     {Text: "> "},
	"bullet":    {Text: "- "},
	"numbered":  {Text: "1. "},
	"task":      {Text: "- [ ] "},
	"hr":        {Text: "\n---\n"},
	"codeblock": {Text: "```\n\n```\n", Offset: -5},
	"mathblock": {Text: "$$\n\n$$", Offset: -3},
	"mermaid":   {Text: "```mermaid\ngraph TD\n  A --> B\n```\n", Offset: -5},
	"table":     {Text: "| Column | Column |\n| ------ | ------ |\n|        |        |\n"},
}

var wrapSnippets = map[string][3]string{
	"bold":   {"**", "**", "bold"},
	"italic": {"_", "_", "italic"},
	"strike": {"~~", "~~", "text"},
	"code":   {"`", "`", "code"},
	"math":   {"$", "$", "x"},
}

// Snippets lists the names accepted by FormatSnippet.
func Snippets() []string {
	return []string{
		"bold", "italic", "strike", "code", "link", "image",
		"h1", "h2", "h3", "quote", "bullet", "numbered", "task",
		"codeblock", "table", "hr", "math", "mathblock", "mermaid",
	}
}

// FormatSnippet builds the named markup snippet around selected.
func FormatSnippet(name, selected string) (Snippet, error) {
	if w, ok := wrapSnippets[name]; ok {
		return Wrap(w[0], w[1], w[2], selected), nil
	}
	switch name {
	case "link":
		text := selected
		if text == "" {
			text = "link"
		}
		return Snippet{Text: "[" + text + "](https://)", Offset: -1}, nil
	case "image":
		alt := selected
		if alt == "" {
			alt = "alt"
		}
		return Snippet{Text: "![" + alt + "](https://)", Offset: -1}, nil
	}
	if b, ok := blockSnippets[name]; ok {
		b.Text += selected
		return b, nil
	}
	return Snippet{}, fmt.Errorf("unknown snippet %q", name)
}

// Insert replaces sel in the content draft with text and returns the new
// cursor position.
func (s *Session) Insert(sel Selection, text string, offset int) int {
	var cursor int
	s.mutate(func(d *Draft) bool {
		var next string
		next, cursor = InsertAt(d.Content, sel, text, offset)
		if next == d.Content {
			return false
		}
		d.Content = next
		return true
	})
	return cursor
}

// Format applies a named snippet to sel and returns the new cursor.
func (s *Session) Format(name string, sel Selection) (int, error) {
	runes := []rune(s.Content())
	c := sel.clamp(len(runes))
	sn, err := FormatSnippet(name, string(runes[c.Start:c.End]))
	if err != nil {
		return 0, err
	}
	return s.Insert(c, sn.Text, sn.Offset), nil
}
