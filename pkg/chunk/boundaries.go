// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package chunk

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// grammarFor returns the Tree-sitter grammar for a language tag, or nil when
// the language has no grammar wired. Tags are file extensions without the
// leading dot.
func grammarFor(language string) *sitter.Language {
	switch language {
	case "go":
		return golang.GetLanguage()
	case "py":
		return python.GetLanguage()
	case "js", "jsx":
		return javascript.GetLanguage()
	case "ts":
		return typescript.GetLanguage()
	case "tsx":
		return tsx.GetLanguage()
	}
	return nil
}

// declarationOffsets parses content with Tree-sitter and returns the sorted
// byte offsets of every top-level declaration. These offsets are the
// preferred split points for the splitter.
//
// Unsupported languages and parse failures return nil; the splitter then
// falls back to its string-boundary scan. Tree-sitter is error-tolerant, so
// files with syntax errors still yield usable offsets.
func declarationOffsets(content []byte, language string) []int {
	lang := grammarFor(language)
	if lang == nil {
		return nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	count := int(root.NamedChildCount())
	offsets := make([]int, 0, count)
	for i := 0; i < count; i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		offsets = append(offsets, int(child.StartByte()))
	}
	sort.Ints(offsets)
	return offsets
}
