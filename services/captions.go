package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"shortsmith/models"
	"shortsmith/utils"
)

const fallbackFont = "Arial"

// Caption is one word overlay, visible during [Start, End) of scene time
type Caption struct {
	Text  string
	Start float64
	End   float64
}

// BuildCaptions turns word timestamps into overlays, one per word. Words
// with no duration or no visible text are dropped.
func BuildCaptions(words []models.Word) []Caption {
	return lo.FilterMap(words, func(w models.Word, _ int) (Caption, bool) {
		text := strings.TrimSpace(w.Text)
		if text == "" || w.End <= w.Start {
			return Caption{}, false
		}
		return Caption{Text: text, Start: w.Start, End: w.End}, true
	})
}

// CaptionStyle controls how word overlays are drawn
type CaptionStyle struct {
	Font        string
	Color       string
	FontSize    int
	StrokeWidth int
	StrokeColor string
}

// DrawText renders one caption as a centered, outlined drawtext filter
// gated to its word boundary
func (cs CaptionStyle) DrawText(c Caption) string {
	return fmt.Sprintf(
		"drawtext=%s:text=%s:expansion=none:fontsize=%d:fontcolor=%s:borderw=%d:bordercolor=%s:x=(w-text_w)/2:y=(h-text_h)/2:enable='gte(t,%s)*lt(t,%s)'",
		cs.fontOption(),
		escapeFilterText(c.Text),
		cs.FontSize,
		escapeFilterText(cs.Color),
		cs.StrokeWidth,
		escapeFilterText(cs.StrokeColor),
		utils.FormatSeconds(c.Start),
		utils.FormatSeconds(c.End),
	)
}

// Filter chains every caption overlay; empty when there are none
func (cs CaptionStyle) Filter(captions []Caption) string {
	return strings.Join(lo.Map(captions, func(c Caption, _ int) string {
		return cs.DrawText(c)
	}), ",")
}

// fontOption uses a font file when one exists, otherwise a fontconfig
// family name. Missing font files fall back to Arial.
func (cs CaptionStyle) fontOption() string {
	font := cs.Font
	switch {
	case font == "":
		font = fallbackFont
	case utils.FileExists(font):
		return "fontfile=" + escapeFilterText(font)
	case looksLikeFontPath(font):
		font = fallbackFont
	}
	return "font=" + escapeFilterText(font)
}

func looksLikeFontPath(s string) bool {
	if strings.ContainsAny(s, `/\`) {
		return true
	}
	switch strings.ToLower(filepath.Ext(s)) {
	case ".ttf", ".otf", ".ttc":
		return true
	}
	return false
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// escapeFilterText escapes a value for a filter option inside a
// -filter_complex graph: once for the option parser, once for the graph
// parser. Line breaks are flattened.
func escapeFilterText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return graphEscaper.Replace(optionEscaper.Replace(s))
}
