package formatter

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(t *Transcript) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", baseTitle)

	for _, turn := range t.Turns {
		fmt.Fprintf(&buf, "\n**%s:** %s\n", roleLabel(turn.Role), turn.Content)
	}

	if len(t.Sources) > 0 {
		buf.WriteString("\n## Sources\n")
		for _, s := range t.Sources {
			fmt.Fprintf(&buf, "\n### %s\n\n", sourceHeading(s))
			for _, line := range strings.Split(s.Content, "\n") {
				fmt.Fprintf(&buf, "> %s\n", line)
			}
		}
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
