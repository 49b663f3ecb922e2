// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

// Line-start patterns used for boundary search, in descending priority.
var (
	// declLinePattern matches lines that begin a function, class or type
	// declaration across the supported languages.
	declLinePattern = regexp.MustCompile(
		`(?m)^[ \t]*(func|def|class|fn|function|impl|trait|interface|struct|enum|type|module|package|public|private|protected|static|export|async)\b`)

	// commentLinePattern matches single-line and block-comment openers.
	commentLinePattern = regexp.MustCompile(`(?m)^[ \t]*(//|#|--|/\*|\*|"""|''')`)
)

// Splitter splits file text into overlapping, bounded-size chunks.
//
// Every produced chunk is at most the target size. Between two consecutive
// chunks of the same file the splitter keeps at least the configured overlap,
// so no statement is ever lost to a cut. Cuts prefer, in order: a top-level
// declaration start reported by Tree-sitter, a declaration keyword line, a
// comment line, any newline, and finally a hard byte cut.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the size parameters and returns a Splitter.
//
// The overlap must be at most half the chunk size: cut never splits earlier
// than the window midpoint, so a larger overlap would allow a chunk shorter
// than the overlap window and break the overlap guarantee.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap*2 > size {
		return nil, fmt.Errorf("chunk overlap (%d) must be at most half the chunk size (%d)", overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split cuts content into chunks. Filename and Language on the returned
// chunks are left empty; the caller fills them in. Whitespace-only windows
// are dropped.
func (s *Splitter) Split(content, language string) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if len(content) <= s.size {
		return []Chunk{{
			StartLine: 1,
			EndLine:   1 + strings.Count(strings.TrimRight(content, "\n"), "\n"),
			Code:      content,
		}}
	}

	hints := declarationOffsets([]byte(content), language)

	var chunks []Chunk
	pos := 0
	for pos < len(content) {
		end := pos + s.size
		if end >= len(content) {
			end = len(content)
		} else {
			end = s.cut(content, pos, end, hints)
		}

		text := content[pos:end]
		if strings.TrimSpace(text) != "" {
			startLine := 1 + strings.Count(content[:pos], "\n")
			chunks = append(chunks, Chunk{
				StartLine: startLine,
				EndLine:   startLine + strings.Count(strings.TrimRight(text, "\n"), "\n"),
				Code:      text,
			})
		}

		if end >= len(content) {
			break
		}

		next := end - s.overlap
		// Snap the next chunk's start back to a line boundary. This only
		// grows the overlap, never shrinks it below the configured minimum.
		if next > pos {
			if nl := strings.LastIndexByte(content[:next], '\n'); nl >= pos {
				next = nl + 1
			}
		}
		if next <= pos {
			// Loop-progress guard; cut always lands past pos+overlap, so this
			// is unreachable unless the boundary search regresses.
			next = end
		}
		pos = next
	}

	return chunks
}

// cut picks the best split position in (minCut, hi], searching only the back
// half of the window. Chunks therefore never shrink below half the target
// size, which with the constructor's overlap bound keeps every chunk strictly
// longer than the overlap window.
func (s *Splitter) cut(content string, lo, hi int, hints []int) int {
	minCut := lo + s.size/2
	if minCut >= hi {
		return hi
	}

	// Highest priority: a top-level declaration start from Tree-sitter.
	for i := len(hints) - 1; i >= 0; i-- {
		h := hints[i]
		if h > hi {
			continue
		}
		if h <= minCut {
			break
		}
		return h
	}

	window := content[minCut:hi]

	if off := lastLineMatch(window, declLinePattern); off > 0 {
		return minCut + off
	}
	if off := lastLineMatch(window, commentLinePattern); off > 0 {
		return minCut + off
	}
	if nl := strings.LastIndexByte(window, '\n'); nl >= 0 {
		return minCut + nl + 1
	}
	return hi
}

// lastLineMatch returns the offset of the last match of a line-start pattern
// within window, or -1. Matches at offset 0 are rejected twice over: (?m)^
// treats the window start as a line start regardless of surrounding content,
// and a cut at the window start would produce a chunk shorter than the
// overlap window.
func lastLineMatch(window string, pattern *regexp.Regexp) int {
	matches := pattern.FindAllStringIndex(window, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if off := matches[i][0]; off > 0 {
			return off
		}
	}
	return -1
}
