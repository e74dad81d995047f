package docset

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/dashdocs-mcp/pkg/types"
)

// dashEntryMarker matches the <dash_entry_...> annotations Dash generators
// embed in paths and anchors.
var dashEntryMarker = regexp.MustCompile(`<dash_entry_.*>`)

// Apple-style anchors are used verbatim, never percent-decoded.
var verbatimFragmentPrefixes = []string{"//apple_ref", "//dash_ref"}

func fileURL(dir string) *url.URL {
	p := filepath.ToSlash(dir)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return &url.URL{Scheme: "file", Path: strings.TrimSuffix(p, "/")}
}

// PageURL builds the URL of a page inside the docset. When fragment is empty
// an anchor embedded in path after '#' is used instead.
func (d *Docset) PageURL(path, fragment string) *url.URL {
	realPath, realFragment := path, fragment
	if fragment == "" {
		var rest string
		realPath, rest, _ = strings.Cut(path, "#")
		realFragment, _, _ = strings.Cut(rest, "#")
	}

	realPath = dashEntryMarker.ReplaceAllString(realPath, "")
	realFragment = dashEntryMarker.ReplaceAllString(realFragment, "")

	if p, err := url.PathUnescape(realPath); err == nil {
		realPath = p
	}

	u := *d.baseURL
	u.Path = d.baseURL.Path + "/" + realPath

	if realFragment != "" {
		u.Fragment = realFragment
		if !hasVerbatimPrefix(realFragment) {
			if f, err := url.PathUnescape(realFragment); err == nil {
				u.Fragment = f
			}
		}
	}

	return &u
}

func hasVerbatimPrefix(fragment string) bool {
	for _, prefix := range verbatimFragmentPrefixes {
		if strings.HasPrefix(fragment, prefix) {
			return true
		}
	}
	return false
}

// ResultURL is the page URL of a search result from this docset.
func (d *Docset) ResultURL(result types.SearchResult) *url.URL {
	return d.PageURL(result.URLPath, result.URLFragment)
}

// pagePath returns u's path relative to DocumentPath, or false when u points
// outside the docset.
func (d *Docset) pagePath(u *url.URL) (string, bool) {
	if u == nil || u.Scheme != d.baseURL.Scheme {
		return "", false
	}
	prefix := d.baseURL.Path + "/"
	if !strings.HasPrefix(u.Path, prefix) || len(u.Path) == len(prefix) {
		return "", false
	}
	return u.Path[len(prefix):], true
}
