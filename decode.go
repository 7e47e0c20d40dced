package svgmaker

import (
	"encoding/base64"
	"strings"
)

// decodeBase64Image decodes a base64 image payload, tolerating both
// standard and URL-safe alphabets and missing padding.
func decodeBase64Image(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if image, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return image, nil
	}
	if image, err := base64.RawStdEncoding.DecodeString(encoded); err == nil {
		return image, nil
	}
	return base64.URLEncoding.DecodeString(encoded)
}

// normalizeSVGContent returns SVG markup as raw text. Content already
// recognizable as complete SVG markup is returned unchanged; otherwise one
// base64 decode is attempted and kept only when the decoded text itself is
// complete SVG markup. Anything else passes through untouched.
//
// The detection is a heuristic: a string that is simultaneously valid
// base64 and a truncated SVG fragment (say, just "<svg") fails the
// complete-markup check, falls through to the base64 attempt, and is
// returned unchanged when that decode does not yield markup either. The
// function is idempotent: accepted decodes always contain a closing tag and
// therefore pass through unchanged on a second application.
func normalizeSVGContent(content string) string {
	if looksLikeSVG(content) {
		return content
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return content
	}
	if text := string(decoded); looksLikeSVG(text) {
		return text
	}
	return content
}

// looksLikeSVG requires both an opening <svg tag and a matching close, so
// fragments do not count as markup.
func looksLikeSVG(content string) bool {
	return strings.Contains(content, "<svg") && strings.Contains(content, "</svg>")
}
