// Package formatter splits a model reply into paragraphs and bullet lists
// for clients that render structured text.
package formatter

import (
	"regexp"
	"strings"
)

const (
	BlockParagraph = "paragraph"
	BlockList      = "list"
)

type Block struct {
	Type  string   `json:"type"`
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

var (
	bulletLine   = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.*)$`)
	headingMark  = regexp.MustCompile(`^#{1,6}\s+`)
	emphasisMark = strings.NewReplacer("**", "", "__", "")
)

func Format(raw string) []Block {
	blocks := make([]Block, 0)
	var para []string
	var items []string

	flushPara := func() {
		if len(para) > 0 {
			blocks = append(blocks, Block{Type: BlockParagraph, Text: strings.Join(para, " ")})
			para = nil
		}
	}
	flushList := func() {
		if len(items) > 0 {
			blocks = append(blocks, Block{Type: BlockList, Items: items})
			items = nil
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flushPara()
			flushList()
			continue
		}
		if m := bulletLine.FindStringSubmatch(trimmed); m != nil {
			flushPara()
			if item := clean(m[1]); item != "" {
				items = append(items, item)
			}
			continue
		}
		flushList()
		if text := clean(headingMark.ReplaceAllString(trimmed, "")); text != "" {
			para = append(para, text)
		}
	}
	flushPara()
	flushList()
	return blocks
}

func clean(s string) string {
	return strings.TrimSpace(emphasisMark.Replace(s))
}
