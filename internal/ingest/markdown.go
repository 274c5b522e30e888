package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownToText flattens a markdown file to plain paragraphs so that the
// splitter sees the same shape it sees for .txt files.
func markdownToText(source []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		var txt string
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			txt = blockLines(n, source)
		case *ast.CodeBlock:
			txt = blockLines(n, source)
		default:
			txt = extractText(n, source)
		}
		if txt != "" {
			blocks = append(blocks, txt)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func blockLines(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return strings.TrimSpace(sb.String())
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node != n && node.Type() == ast.TypeBlock && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteString("\n")
		}
		if node.Kind() == ast.KindText {
			t := node.(*ast.Text)
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
