// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package htmlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const sampleHTML = `<!DOCTYPE html>
<html><body>
<a href="07f1.jpg"><img src="07f1.jpg"></a>
<a href="07f2.tif">Figure 2</a>
<a href="07f10.jpg">Figure 10</a>
<a href="http://example.org/07f1.jpg">external</a>
<video src="07v1.mp4"></video>
</body></html>`

func TestRewriteReferences(t *testing.T) {
	out := RewriteReferences(sampleHTML, Replacements{
		"07f1.jpg": "https://assets.example.org/a1",
		"07f2.tif": "https://assets.example.org/a2",
	})

	assert.Contains(t, out, `href="https://assets.example.org/a1"`)
	assert.Contains(t, out, `src="https://assets.example.org/a1"`)
	assert.Contains(t, out, `href="https://assets.example.org/a2"`)
	// Prefix look-alikes and absolute URLs are untouched.
	assert.Contains(t, out, `href="07f10.jpg"`)
	assert.Contains(t, out, `href="http://example.org/07f1.jpg"`)
	// No replacement, original reference kept.
	assert.Contains(t, out, `src="07v1.mp4"`)
}

func TestRewriteReferences_Empty(t *testing.T) {
	assert.Equal(t, sampleHTML, RewriteReferences(sampleHTML, nil))
	assert.Equal(t, sampleHTML, RewriteReferences(sampleHTML, Replacements{"07f1.jpg": ""}))
}

func TestRewriteReferences_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[a-z0-9]{1,6}\.(jpg|png|tif|mp4)`), 1, 6,
			func(s string) string { return s },
		).Draw(rt, "names")

		repl := Replacements{}
		html := "<html><body>"
		for i, n := range names {
			if rapid.Bool().Draw(rt, "registered") {
				repl[n] = "https://assets.example.org/" + rapid.StringMatching(`[a-f0-9]{8}`).Draw(rt, "id")
			}
			if i%2 == 0 {
				html += `<a href="` + n + `">x</a>`
			} else {
				html += `<img src="` + n + `">`
			}
		}
		html += "</body></html>"

		once := RewriteReferences(html, repl)
		twice := RewriteReferences(once, repl)
		if once != twice {
			rt.Fatalf("rewrite not idempotent:\n once: %s\ntwice: %s", once, twice)
		}
		for n := range repl {
			if strings.Contains(once, `="`+n+`"`) {
				rt.Fatalf("reference to %s not rewritten", n)
			}
		}
	})
}

func TestMediaReferences(t *testing.T) {
	names := []string{"07f1.jpg", "07f2.tif", "07v1.mp4", "07f9.jpg"}

	refs, err := MediaReferences(sampleHTML, names)
	require.NoError(t, err)
	assert.Equal(t, []string{"07f1.jpg", "07f2.tif", "07v1.mp4"}, refs)

	out := RewriteReferences(sampleHTML, Replacements{
		"07f1.jpg": "https://assets.example.org/a1",
		"07f2.tif": "https://assets.example.org/a2",
	})
	refs, err = MediaReferences(out, names)
	require.NoError(t, err)
	assert.Equal(t, []string{"07v1.mp4"}, refs)
}
