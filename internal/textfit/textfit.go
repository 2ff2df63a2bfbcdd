// Package textfit shrinks and truncates stamp text so it never overflows
// the box it is written into. The algorithm is deterministic and always
// terminates; callers supply the width-measuring capability so the same
// policy works against true font metrics at render time and against cheap
// estimates at compile time.
package textfit

import "math"

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// Measurer reports the rendered width of text at the given font size, in
// the same unit as the maximum width passed to Fit.
type Measurer func(text string, fontSize float64) float64

// Result is the outcome of a fitting pass.
type Result struct {
	Text     string
	FontSize float64
	// Truncated is true when characters were dropped and Ellipsis appended.
	Truncated bool
}

// Fit returns text and a font size whose measured width is at most
// maxWidth. The policy is two fixed size steps then truncation:
//
//  1. keep text at initial size if it fits,
//  2. else keep text at fallback size if that fits,
//  3. else drop trailing characters at fallback size, re-measuring with the
//     ellipsis appended, until the result fits or the text is exhausted.
//
// An empty or exhausted text yields exactly Ellipsis at the fallback size,
// so the loop can never run forever.
func Fit(text string, maxWidth float64, measure Measurer, initial, fallback float64) Result {
	if text == "" {
		return Result{Text: Ellipsis, FontSize: fallback, Truncated: true}
	}

	if measure(text, initial) <= maxWidth {
		return Result{Text: text, FontSize: initial}
	}

	if measure(text, fallback) <= maxWidth {
		return Result{Text: text, FontSize: fallback}
	}

	runes := []rune(text)
	for len(runes) > 0 && measure(string(runes)+Ellipsis, fallback) > maxWidth {
		runes = runes[:len(runes)-1]
	}

	return Result{Text: string(runes) + Ellipsis, FontSize: fallback, Truncated: true}
}

// Heuristic character width in editor pixels at the default compile-time
// font size. A cheap pre-pass, not a substitute for true metrics.
const heuristicCharWidth = 8

// EstimateSize scales the default font size down proportionally when the
// 8px-per-character estimate of the text exceeds maxWidth. The result is
// floored and never below min. Used at layer-compile time; the real fitting
// against font metrics happens at stamp time.
func EstimateSize(text string, maxWidth, defaultSize, min float64) float64 {
	estimated := float64(len([]rune(text))) * heuristicCharWidth
	if estimated <= maxWidth || estimated == 0 {
		return defaultSize
	}
	size := math.Floor(defaultSize * (maxWidth / estimated))
	if size < min {
		return min
	}
	return size
}
