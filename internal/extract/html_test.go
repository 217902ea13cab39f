package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_HTMLStripsMarkup(t *testing.T) {
	r := NewRegistry()

	page := `<!DOCTYPE html>
<html>
<head><title>Ignored</title><style>body { color: red }</style></head>
<body>
<h1>Quarterly Report</h1>
<p>Revenue grew by <strong>12%</strong> this quarter.</p>
<script>alert("tracking")</script>
<!-- internal note -->
<ul><li>North region</li><li>South region</li></ul>
</body>
</html>`

	text, err := r.Extract([]byte(page), "text/html")

	require.NoError(t, err)
	assert.Contains(t, text, "Quarterly Report")
	assert.Contains(t, text, "Revenue grew by 12% this quarter.")
	assert.Contains(t, text, "North region")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "internal note")
	assert.NotContains(t, text, "<")
}

func TestExtract_HTMLBlockBoundariesBecomeNewlines(t *testing.T) {
	text, err := decodeHTML([]byte("<p>first</p><p>second</p>"))

	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", text)
}

func TestExtract_HTMLDecodesEntities(t *testing.T) {
	text, err := decodeHTML([]byte("<p>fish &amp; chips &mdash; &pound;5</p>"))

	require.NoError(t, err)
	assert.Contains(t, text, "fish & chips")
	assert.Contains(t, text, "£5")
}

func TestExtract_XHTMLUsesHTMLExtractor(t *testing.T) {
	r := NewRegistry()

	text, err := r.Extract([]byte("<div>content</div>"), "application/xhtml+xml")

	require.NoError(t, err)
	assert.Equal(t, "content", text)
}
