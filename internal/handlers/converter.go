package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// Converter turns pseudo-markdown into a self-contained HTML document.
// This is the quota-consuming operation guarded by the enforcement gate.
type Converter interface {
	Convert(ctx context.Context, markdown, stylePrompt string) (string, error)
}

// PassthroughConverter renders the markdown as escaped preformatted text.
// It stands in for a model-backed converter in local runs.
type PassthroughConverter struct{}

func (PassthroughConverter) Convert(_ context.Context, markdown, stylePrompt string) (string, error) {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`<script src="https://cdn.tailwindcss.com"></script>`)
	b.WriteString("\n</head>\n")

	if stylePrompt != "" {
		fmt.Fprintf(&b, "<body data-style=\"%s\">\n", html.EscapeString(stylePrompt))
	} else {
		b.WriteString("<body>\n")
	}

	fmt.Fprintf(&b, "<pre class=\"whitespace-pre-wrap p-8\">%s</pre>\n", html.EscapeString(markdown))
	b.WriteString("</body>\n</html>\n")

	return b.String(), nil
}
