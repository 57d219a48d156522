package static

import "bytes"

// spaShellMarkers are fragments that identify a client-rendered app shell:
// pages like these serve their buttons from JavaScript, so the HTTP path
// would watch an empty document.
var spaShellMarkers = [][]byte{
	[]byte(`<div id="root"></div>`),
	[]byte(`<div id="app"></div>`),
	[]byte(`<div id="__next"></div>`),
	[]byte(`<noscript>you need to enable javascript`),
	[]byte(`<noscript>enable javascript`),
}

// IsSufficient reports whether the HTML body carries enough server-rendered
// content for the HTTP-only driver to be trustworthy. Heuristic: enough
// visible text relative to markup, and no SPA shell markers.
func IsSufficient(html []byte) bool {
	if len(html) < 256 {
		return false
	}

	lower := bytes.ToLower(html)
	for _, m := range spaShellMarkers {
		if bytes.Contains(lower, m) {
			return false
		}
	}

	text, markup := textMarkupSplit(html)
	total := text + markup
	if total == 0 || text < 200 {
		return false
	}
	// Less than 10% text is almost always a script bundle loader.
	return float64(text)/float64(total) >= 0.10
}

// textMarkupSplit counts bytes of visible text vs markup, treating script
// and style bodies as markup.
func textMarkupSplit(html []byte) (text, markup int) {
	inTag, inScript, inStyle := false, false, false

	for i := 0; i < len(html); i++ {
		ch := html[i]

		switch {
		case inScript || inStyle:
			markup++
			if ch == '<' {
				close := []byte("</script")
				if inStyle {
					close = []byte("</style")
				}
				if i+len(close) <= len(html) && bytes.EqualFold(html[i:i+len(close)], close) {
					inScript, inStyle = false, false
					inTag = true
				}
			}
		case ch == '<':
			inTag = true
			markup++
			if hasFoldPrefix(html[i:], "<script") {
				inScript = true
			} else if hasFoldPrefix(html[i:], "<style") {
				inStyle = true
			}
		case ch == '>':
			inTag = false
			markup++
		case inTag:
			markup++
		default:
			if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
				text++
			}
		}
	}
	return text, markup
}

func hasFoldPrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && bytes.EqualFold(b[:len(prefix)], []byte(prefix))
}
