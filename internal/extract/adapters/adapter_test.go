package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const termsPage = `<!DOCTYPE html>
<html>
<head><title>Terms of Service | Example</title><script>track()</script></head>
<body>
<nav><a href="/">Home</a><a href="/pricing">Pricing</a></nav>
<div class="cookie">We use cookies. Accept?</div>
<main>
  <h1>TERMS OF SERVICE</h1>
  <h2>1. ACCEPTANCE</h2>
  <p>You agree to these terms by using the service.</p>
  <h2>2. INDEMNIFICATION</h2>
  <p>You shall indemnify the Company against all claims.</p>
  <footer>Contact us</footer>
</main>
<footer>Copyright Example Inc.</footer>
</body>
</html>`

func TestRegistry_FindAdapter(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		url         string
		contentType string
		want        string
	}{
		{"https://example.com/terms", "text/html; charset=utf-8", "legal"},
		{"https://example.com/legal/privacy", "", "legal"},
		{"https://example.com/TOS", "text/html", "legal"},
		{"https://example.com/blog/post", "text/html", "generic"},
		{"https://example.com/terms.txt", "text/plain", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, r.FindAdapter(tt.url, tt.contentType).Name())
		})
	}
}

func TestLegalAdapter_ExtractsMainContent(t *testing.T) {
	doc, err := NewRegistry().Extract(termsPage, "https://example.com/terms", "text/html")
	require.NoError(t, err)

	assert.Equal(t, "legal", doc.Adapter)
	assert.Equal(t, "Terms of Service | Example", doc.Title)
	assert.Equal(t,
		"TERMS OF SERVICE\n1. ACCEPTANCE\nYou agree to these terms by using the service.\n2. INDEMNIFICATION\nYou shall indemnify the Company against all claims.",
		doc.Text)
}

func TestGenericAdapter_WholeBody(t *testing.T) {
	doc, err := NewRegistry().Extract(termsPage, "https://example.com/blog", "text/html")
	require.NoError(t, err)

	assert.Equal(t, "generic", doc.Adapter)
	assert.Contains(t, doc.Text, "You shall indemnify the Company against all claims.")
	assert.Contains(t, doc.Text, "Copyright Example Inc.")
	assert.NotContains(t, doc.Text, "track()")
}

func TestRegistry_FallsBackWhenLegalFindsNothing(t *testing.T) {
	page := `<html><body><main><nav>Menu</nav></main><p>Fees are due monthly.</p></body></html>`

	doc, err := NewRegistry().Extract(page, "https://example.com/terms", "text/html")
	require.NoError(t, err)
	assert.Equal(t, "generic", doc.Adapter)
	assert.Contains(t, doc.Text, "Fees are due monthly.")
}
