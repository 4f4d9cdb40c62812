package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ChunkText splits content into chunks of at most maxChars with overlapChars
// of overlap between consecutive chunks. Chunk boundaries prefer a space,
// newline or sentence end within the last tenth of the chunk.
func ChunkText(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(content[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		start += maxChars - overlapChars
		if start >= contentLen {
			break
		}
	}
	return chunks
}

// ChunkMarkdown splits a markdown document into heading-scoped sections and
// size-chunks each section. A section's heading is prepended to its chunks so
// retrieval keeps the topic visible.
func ChunkMarkdown(source []byte, maxChars, overlapChars int) []string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var chunks []string
	var heading string
	var section strings.Builder

	flush := func() {
		body := strings.TrimSpace(section.String())
		section.Reset()
		if body == "" {
			return
		}
		if heading != "" {
			body = heading + "\n" + body
		}
		chunks = append(chunks, ChunkText(body, maxChars, overlapChars)...)
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok {
			flush()
			heading = string(h.Text(source))
			continue
		}
		appendBlockText(node, source, &section)
	}
	flush()

	// A document without headings is still one section.
	if len(chunks) == 0 {
		if body := strings.TrimSpace(string(source)); body != "" {
			chunks = ChunkText(body, maxChars, overlapChars)
		}
	}
	return chunks
}

// appendBlockText writes the raw text lines of a block node (recursing into
// containers such as lists and quotes) followed by a blank line.
func appendBlockText(node ast.Node, source []byte, sb *strings.Builder) {
	if node.Type() == ast.TypeBlock && node.Lines().Len() > 0 {
		for i := 0; i < node.Lines().Len(); i++ {
			seg := node.Lines().At(i)
			sb.Write(seg.Value(source))
		}
		sb.WriteString("\n")
		return
	}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		appendBlockText(child, source, sb)
	}
}
