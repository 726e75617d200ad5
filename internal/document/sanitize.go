package document

import "regexp"

var (
	urlPattern     = regexp.MustCompile(`http\S+`)
	escapedPattern = regexp.MustCompile(`\\x\S+`)
)

// Sanitize strips every URL-like run (http followed by non-whitespace) and every
// textual byte escape run (\x followed by non-whitespace). Surrounding
// whitespace is left untouched.
func Sanitize(doc string) string {
	doc = urlPattern.ReplaceAllLiteralString(doc, "")
	return escapedPattern.ReplaceAllLiteralString(doc, "")
}
