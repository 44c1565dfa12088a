package summary

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is a titled block of the generated analysis.
// Text before the first heading is returned as a section with Level 0.
type Section struct {
	Level int
	Title string
	Body  string
}

// SplitSections splits markdown at its top-level headings.
func SplitSections(markdown string) []Section {
	src := []byte(markdown)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	type mark struct {
		level     int
		title     string
		lineStart int
		bodyStart int
	}
	var marks []mark
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		first := h.Lines().At(0)
		last := h.Lines().At(h.Lines().Len() - 1)
		var title bytes.Buffer
		for i := 0; i < h.Lines().Len(); i++ {
			seg := h.Lines().At(i)
			title.Write(seg.Value(src))
		}
		bodyStart := last.Stop
		if nl := bytes.IndexByte(src[bodyStart:], '\n'); nl >= 0 {
			bodyStart += nl + 1
		} else {
			bodyStart = len(src)
		}
		marks = append(marks, mark{
			level:     h.Level,
			title:     strings.TrimSpace(title.String()),
			lineStart: bytes.LastIndexByte(src[:first.Start], '\n') + 1,
			bodyStart: bodyStart,
		})
	}

	var out []Section
	preambleEnd := len(src)
	if len(marks) > 0 {
		preambleEnd = marks[0].lineStart
	}
	if pre := strings.TrimSpace(string(src[:preambleEnd])); pre != "" {
		out = append(out, Section{Body: pre})
	}
	for i, m := range marks {
		end := len(src)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		body := ""
		if m.bodyStart < end {
			body = strings.TrimSpace(string(src[m.bodyStart:end]))
		}
		out = append(out, Section{Level: m.level, Title: m.title, Body: body})
	}
	return out
}
