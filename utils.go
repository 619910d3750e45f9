package main

import (
	"time"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

func hfTime(t time.Time) string {
	return t.Format("01.02.2006 15:04")
}

func hfSlug(s string) string {
	return slug.Make(s)
}

// renderText turns a markdown description into sanitized HTML.
func renderText(t string) string {
	extensions := blackfriday.CommonExtensions |
		blackfriday.Autolink |
		blackfriday.HardLineBreak |
		blackfriday.NoIntraEmphasis |
		blackfriday.Tables |
		blackfriday.FencedCode |
		blackfriday.Strikethrough |
		blackfriday.SpaceHeadings

	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.UseXHTML |
			blackfriday.Smartypants |
			blackfriday.SmartypantsFractions |
			blackfriday.SmartypantsLatexDashes,
	})
	unsafe := blackfriday.Run([]byte(t), blackfriday.WithExtensions(extensions), blackfriday.WithRenderer(renderer))
	return string(bluemonday.UGCPolicy().SanitizeBytes(unsafe))
}
