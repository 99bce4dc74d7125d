// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package htmlgen

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Replacements maps a media filename, as referenced by the rendered HTML,
// to the public URL of the registered asset.
type Replacements map[string]string

// RewriteReferences replaces every href="<name>" and src="<name>" with the
// registered URL. Names without a replacement are left as they are.
// Rewriting twice gives the same output as rewriting once, as long as no
// URL is itself a media name.
func RewriteReferences(html string, repl Replacements) string {
	if len(repl) == 0 {
		return html
	}
	names := make([]string, 0, len(repl))
	for name := range repl {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names)*4)
	for _, name := range names {
		url := repl[name]
		if name == "" || url == "" {
			continue
		}
		for _, attr := range []string{"href", "src"} {
			pairs = append(pairs, attr+`="`+name+`"`, attr+`="`+url+`"`)
		}
	}
	return strings.NewReplacer(pairs...).Replace(html)
}

// MediaReferences returns the sorted subset of names still referenced by an
// href or src attribute in html.
func MediaReferences(html string, names []string) ([]string, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	found := map[string]bool{}
	doc.Find("[href], [src]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"href", "src"} {
			if v, ok := s.Attr(attr); ok && want[v] {
				found[v] = true
			}
		}
	})

	out := make([]string, 0, len(found))
	for n := range found {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}
