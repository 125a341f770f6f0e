package httpclient

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxTitleScan bounds how much of a response body is tokenized looking for <title>.
const MaxTitleScan = 2 << 20

// ExtractTitle returns the whitespace-collapsed text of the first <title>
// element in r, or "" when the document has none.
func ExtractTitle(r io.Reader) (string, error) {
	z := html.NewTokenizer(io.LimitReader(r, MaxTitleScan))
	inTitle := false
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return collapse(b.String()), nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Title {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inTitle && atom.Lookup(name) == atom.Title {
				return collapse(b.String()), nil
			}
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
