// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package frontmatter parses and serializes the leading metadata blocks
// embedded in page blobs. Blobs written by older clients may carry more
// than one block; decoding merges them in order with later values winning
// and strips every matched block from the returned body. Encoding always
// emits exactly one block.
package frontmatter

import (
	"strings"
)

// Frontmatter is an ordered key/value map. Keys keep first-seen order;
// setting an existing key overwrites its value in place.
type Frontmatter struct {
	keys   []string
	values map[string]string
}

// New creates an empty Frontmatter.
func New() *Frontmatter {
	return &Frontmatter{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present.
func (f *Frontmatter) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// GetDefault returns the value for key, or def when absent.
func (f *Frontmatter) GetDefault(key, def string) string {
	if v, ok := f.values[key]; ok {
		return v
	}
	return def
}

// Bool interprets the value for key as a boolean flag.
// "true", "yes" and "1" (case-insensitive) count as true.
func (f *Frontmatter) Bool(key string) bool {
	switch strings.ToLower(f.GetDefault(key, "")) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// Set stores a value, preserving first-seen key order.
func (f *Frontmatter) Set(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Keys returns the keys in first-seen order.
func (f *Frontmatter) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	return len(f.keys)
}

// Merge folds other into f with other's values winning on collision.
func (f *Frontmatter) Merge(other *Frontmatter) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		f.Set(k, other.values[k])
	}
}

// Decode splits a blob into its merged frontmatter and remaining body.
// Every leading "---" delimited block is consumed; duplicated keys across
// blocks resolve to the last block's value. A blob without a complete
// leading block decodes to an empty Frontmatter and the unchanged body.
func Decode(blob string) (*Frontmatter, string) {
	fm := New()
	rest := blob
	for {
		block, remainder, ok := splitBlock(rest)
		if !ok {
			break
		}
		fm.Merge(parseBlock(block))
		rest = remainder
	}
	return fm, rest
}

// Encode serializes the frontmatter as a single leading block followed by
// body. An empty frontmatter still emits the delimiters so the page's
// metadata position is stable.
func Encode(fm *Frontmatter, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	if fm != nil {
		for _, k := range fm.keys {
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(fm.values[k])
			b.WriteString("\n")
		}
	}
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String()
}

// splitBlock consumes one leading "---" delimited block. It returns the
// block's inner text, the remainder after the closing delimiter line, and
// whether a complete block was found.
func splitBlock(s string) (string, string, bool) {
	first, after, _ := cutLine(s)
	if strings.TrimRight(first, "\r") != "---" {
		return "", "", false
	}

	var inner []string
	rest := after
	for {
		line, remainder, hadNewline := cutLine(rest)
		if strings.TrimRight(line, "\r") == "---" {
			return strings.Join(inner, "\n"), remainder, true
		}
		if !hadNewline {
			// Ran out of input without a closing delimiter.
			return "", "", false
		}
		inner = append(inner, line)
		rest = remainder
	}
}

// cutLine splits off the first line of s, excluding the newline.
func cutLine(s string) (line, rest string, hadNewline bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// parseBlock parses "key: value" lines into an ordered map. Lines without
// a colon are ignored; values are trimmed and unwrapped of one layer of
// surrounding quotes.
func parseBlock(block string) *Frontmatter {
	fm := New()
	for _, line := range strings.Split(block, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fm.Set(key, unwrapQuotes(strings.TrimSpace(value)))
	}
	return fm
}

// unwrapQuotes removes a single layer of matching surrounding quotes.
func unwrapQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
