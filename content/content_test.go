package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeHTML_StripsScriptTags(t *testing.T) {
	out := SanitizeHTML(`<p>hello</p><script>alert(1)</script>`)
	assert.Contains(t, out, "hello")
	assert.NotContains(t, out, "script")
}

func TestExtractText_CollapsesWhitespace(t *testing.T) {
	out, err := ExtractText(`<div>  Hello   <span>World</span>  </div>`)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)
}

func TestRenderMarkdown_ProducesHTML(t *testing.T) {
	out := RenderMarkdown("# Title\n\nBody text.")
	assert.Contains(t, string(out), "<h1")
	assert.Contains(t, string(out), "Body text.")
}
