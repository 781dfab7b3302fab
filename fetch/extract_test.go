package fetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderedText(t *testing.T) {
	rawHTML := `<html><head>
		<title>Doc</title>
		<style>body { color: red; }</style>
	</head><body>
		<script>console.log("tracking");</script>
		<nav>   </nav>
		<h1>  Concurrency in Go  </h1>
		<p>Goroutines are lightweight     threads.</p>
		<div>Channels <b>coordinate</b> them.</div>
		<noscript>Enable JS</noscript>
	</body></html>`

	text := RenderedText(rawHTML)

	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Enable JS")

	lines := strings.Split(text, "\n")
	assert.Equal(t, []string{
		"Concurrency in Go",
		"Goroutines are lightweight threads.",
		"Channels coordinate them.",
	}, lines)
}

func TestRenderedTextEmptyAndGarbage(t *testing.T) {
	assert.Equal(t, "", RenderedText(""))
	// html.Parse is forgiving; unclosed tags still yield their text.
	assert.Equal(t, "hello", RenderedText("<p>hello"))
}

func TestRenderedTextNoBody(t *testing.T) {
	// A bare fragment still parses; text should come through.
	text := RenderedText("<div>fragment content</div>")
	assert.Equal(t, "fragment content", text)
}
