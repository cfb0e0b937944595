// Package markdown renders tutor answers to HTML.
package markdown

import (
	"html/template"

	"github.com/russross/blackfriday/v2"
)

const extensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs

// Render converts markdown to HTML. Raw HTML in the input is dropped, so the
// result is safe to embed in a page as is.
func Render(source string) template.HTML {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.NoreferrerLinks | blackfriday.HrefTargetBlank,
	})
	output := blackfriday.Run(
		[]byte(source),
		blackfriday.WithExtensions(extensions),
		blackfriday.WithRenderer(renderer),
	)
	return template.HTML(output)
}
