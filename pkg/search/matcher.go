// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package search

import (
	"regexp"
	"strings"
)

// Matcher decides whether a free-text query names a specific file, and if
// so, extracts the filename token. It is an interface so the matching
// strategy (regex vs. tokenizer) can be swapped without touching the merge
// logic.
type Matcher interface {
	// Match returns the filename token found in query and true, or "" and
	// false when the query names no file.
	Match(query string) (string, bool)
}

// bareFilenamePattern matches a bare-filename shape: word characters
// (optionally with path separators), a dot, and a short alphabetic-led
// extension, captured for filtering. "main.rs" and "src/server.go" match;
// "2.0" does not.
var bareFilenamePattern = regexp.MustCompile(`[\w\-./]*\w\.([A-Za-z][A-Za-z0-9]{0,11})\b`)

// singleLetterExtensions are the one-letter extensions accepted as real
// filenames. Other one-letter "extensions" are overwhelmingly prose
// abbreviations like "e.g" and "i.e".
var singleLetterExtensions = map[string]bool{
	"c": true,
	"h": true,
	"m": true,
	"r": true,
	"s": true,
	"v": true,
}

// RegexMatcher is the default Matcher, backed by bareFilenamePattern.
type RegexMatcher struct{}

// NewRegexMatcher returns the default filename matcher.
func NewRegexMatcher() *RegexMatcher {
	return &RegexMatcher{}
}

// Match returns the first filename-shaped token in the query. Tokens with a
// one-letter extension outside the known set are skipped, so an "e.g." in
// the prose never shadows a real filename later in the query.
func (m *RegexMatcher) Match(query string) (string, bool) {
	for _, match := range bareFilenamePattern.FindAllStringSubmatch(query, -1) {
		ext := strings.ToLower(match[1])
		if len(ext) >= 2 || singleLetterExtensions[ext] {
			return match[0], true
		}
	}
	return "", false
}
