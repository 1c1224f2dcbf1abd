package editor

import (
	"regexp"
	"unicode/utf8"
)

type FindOptions struct {
	CaseSensitive bool
	Regex         bool
	WholeWord     bool
}

// Match is a rune range of a search hit.
type Match struct {
	Start, End int
}

// Finder tracks the matches of one query over one text.
type Finder struct {
	Query   string
	Options FindOptions

	re      *regexp.Regexp
	text    string
	matches []Match
	current int
}

// Compile builds the search expression for query.
func Compile(query string, opts FindOptions) (*regexp.Regexp, error) {
	pattern := query
	if !opts.Regex {
		pattern = regexp.QuoteMeta(query)
	}
	if opts.WholeWord {
		pattern = `\b(?:` + pattern + `)\b`
	}
	if !opts.CaseSensitive {
		pattern = `(?i)` + pattern
	}
	return regexp.Compile(pattern)
}

// Search runs query over text. An invalid pattern clears the matches and
// returns the compile error.
func (f *Finder) Search(text, query string, opts FindOptions) error {
	f.Query, f.Options, f.text = query, opts, text
	f.re, f.matches, f.current = nil, nil, -1
	if query == "" {
		return nil
	}
	re, err := Compile(query, opts)
	if err != nil {
		return err
	}
	f.re = re
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		f.matches = append(f.matches, Match{
			Start: utf8.RuneCountInString(text[:loc[0]]),
			End:   utf8.RuneCountInString(text[:loc[1]]),
		})
	}
	if len(f.matches) > 0 {
		f.current = 0
	}
	return nil
}

func (f *Finder) Matches() []Match { return append([]Match(nil), f.matches...) }

func (f *Finder) Count() int { return len(f.matches) }

// Index is the zero-based position of the current match, or -1.
func (f *Finder) Index() int { return f.current }

func (f *Finder) Current() (Match, bool) {
	if f.current < 0 || f.current >= len(f.matches) {
		return Match{}, false
	}
	return f.matches[f.current], true
}

// Next moves to the following match, wrapping at the end.
func (f *Finder) Next() (Match, bool) {
	if len(f.matches) == 0 {
		return Match{}, false
	}
	f.current = (f.current + 1) % len(f.matches)
	return f.matches[f.current], true
}

// Prev moves to the preceding match, wrapping at the start.
func (f *Finder) Prev() (Match, bool) {
	if len(f.matches) == 0 {
		return Match{}, false
	}
	f.current = (f.current - 1 + len(f.matches)) % len(f.matches)
	return f.matches[f.current], true
}

// Nearest selects the first match starting at or after pos.
func (f *Finder) Nearest(pos int) (Match, bool) {
	for i, m := range f.matches {
		if m.Start >= pos {
			f.current = i
			return m, true
		}
	}
	return f.Next()
}

func (f *Finder) expand(m Match, repl string) string {
	if !f.Options.Regex {
		return repl
	}
	runes := []rune(f.text)
	src := string(runes[m.Start:m.End])
	return f.re.ReplaceAllString(src, repl)
}

// ReplaceCurrent replaces the current match and searches again. It
// returns the new text.
func (f *Finder) ReplaceCurrent(repl string) (string, bool) {
	m, ok := f.Current()
	if !ok {
		return f.text, false
	}
	text, _ := InsertAt(f.text, Selection(m), f.expand(m, repl), 0)
	idx := f.current
	_ = f.Search(text, f.Query, f.Options)
	if len(f.matches) > 0 {
		f.current = idx % len(f.matches)
	}
	return text, true
}

// ReplaceAll replaces every match and returns the new text with the
// number of replacements. Empty matches are replaced too, so the count can
// exceed Count.
func (f *Finder) ReplaceAll(repl string) (string, int) {
	if f.re == nil {
		return f.text, 0
	}
	n := len(f.re.FindAllStringIndex(f.text, -1))
	if n == 0 {
		return f.text, 0
	}
	var text string
	if f.Options.Regex {
		text = f.re.ReplaceAllString(f.text, repl)
	} else {
		text = f.re.ReplaceAllLiteralString(f.text, repl)
	}
	_ = f.Search(text, f.Query, f.Options)
	return text, n
}

// Find searches the content draft.
func (s *Session) Find(query string, opts FindOptions) (*Finder, error) {
	f := &Finder{}
	err := f.Search(s.Content(), query, opts)
	return f, err
}

// ReplaceAll replaces every match of query in the content draft.
func (s *Session) ReplaceAll(query, repl string, opts FindOptions) (int, error) {
	if query == "" {
		return 0, nil
	}
	var (
		n   int
		err error
	)
	s.mutate(func(d *Draft) bool {
		f := &Finder{}
		if err = f.Search(d.Content, query, opts); err != nil {
			return false
		}
		var next string
		next, n = f.ReplaceAll(repl)
		if n == 0 || next == d.Content {
			return false
		}
		d.Content = next
		return true
	})
	return n, err
}

// ReplaceMatch replaces one match in the content draft.
func (s *Session) ReplaceMatch(f *Finder, repl string) bool {
	replaced := false
	s.mutate(func(d *Draft) bool {
		if f.text != d.Content {
			return false
		}
		var next string
		next, replaced = f.ReplaceCurrent(repl)
		if !replaced {
			return false
		}
		d.Content = next
		return true
	})
	return replaced
}
