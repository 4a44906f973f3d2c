package fontastic

import (
	_ "embed"
	"os"
	"regexp"
)

//go:embed template.html
var defaultTemplate []byte

var tokenRegexp = regexp.MustCompile(`\$(\w+)\$`)

// Substitute replaces every $KEY$ token in tmpl by values[KEY]. Tokens whose key is not in values are left as is.
func Substitute(tmpl string, values map[string]string) string {
	return tokenRegexp.ReplaceAllStringFunc(tmpl, func(token string) string {
		if value, ok := values[token[1:len(token)-1]]; ok {
			return value
		}
		return token
	})
}

// RenderTemplate substitutes values in tmpl and writes the result to dst.
func RenderTemplate(dst string, tmpl []byte, values map[string]string) error {
	if err := os.WriteFile(dst, []byte(Substitute(string(tmpl), values)), 0644); err != nil {
		return &PackageError{Kind: ErrUnwritableOutput, Path: dst, Err: err}
	}
	return nil
}
