package main

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlSanitize = bluemonday.UGCPolicy()
)

// MarkdownHTML renders model output as sanitized HTML for the web page
func MarkdownHTML(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(htmlSanitize.SanitizeBytes(buf.Bytes()))
}
