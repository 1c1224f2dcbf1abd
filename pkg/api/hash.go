package api

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// Hash returns a BLAKE3 digest of the editable content of a note:
// title, content and the label set. Identity, state and timestamps are
// left out so two notes hash equal iff an editor would consider them equal.
func (n Note) Hash() string {
	return ContentHash(n.Title, n.Content, n.Labels)
}

// ContentHash hashes a title/content/label triple the same way Note.Hash does.
// Labels are compared as a case-insensitive set. Every field is length
// prefixed, so no two distinct triples share an encoding.
func ContentHash(title, content string, labels []string) string {
	h := blake3.New()

	writeField(h, title)
	writeField(h, content)

	norm := NormalizeLabels(labels)
	writeLen(h, len(norm))
	for _, l := range norm {
		writeField(h, l)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, s string) {
	writeLen(w, len(s))
	_, _ = io.WriteString(w, s)
}

func writeLen(w io.Writer, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	_, _ = w.Write(buf[:])
}

// NormalizeLabels lowercases, trims, de-duplicates and sorts label names.
func NormalizeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
