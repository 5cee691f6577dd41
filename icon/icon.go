// Package icon rewrites image URLs to point at one of the pre-rendered
// sizes kept by the image server.
package icon

import (
	"strconv"
	"strings"
)

const (
	// Passing this as the size returns the URL of the original image.
	Original = -1
)

// Rewrites icon URLs of the form <prefix><suffix> into
// <prefix>_<size>x<size><suffix>.
type Rewriter struct {
	// Used when no size is requested or the requested size is not one
	// the image server renders.
	DefaultSize int

	// The sizes rendered by the image server.
	Sizes []int

	// The file extension marking the end of the prefix.
	Suffix string
}

// The sizes the image server renders out of the box.
var DefaultRewriter = Rewriter{
	DefaultSize: 130,
	Sizes:       []int{50, 65, 100, 130, 195, 260},
	Suffix:      ".png",
}

// Returns the URL of the given size of the icon. A size of 0 selects
// DefaultSize and Original (-1) returns url untouched. URLs that do not
// contain Suffix are returned as is.
func (r Rewriter) Rewrite(url string, size int) string {
	if url == "" || size == Original {
		return url
	}
	if size == 0 {
		size = r.DefaultSize
	}
	index := strings.Index(url, r.Suffix)
	if r.Suffix == "" || index < 0 {
		return url
	}
	if !r.supports(size) {
		size = r.DefaultSize
	}
	dim := strconv.Itoa(size)
	return url[:index] + "_" + dim + "x" + dim + r.Suffix
}

func (r Rewriter) supports(size int) bool {
	for _, s := range r.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// Rewrites url using DefaultRewriter.
func Rewrite(url string, size int) string {
	return DefaultRewriter.Rewrite(url, size)
}

// Parses the url[@size] form accepted on the command line. A missing or
// unparsable size is returned as 0.
func ParseSpec(spec string) (url string, size int) {
	at := strings.LastIndexByte(spec, '@')
	if at < 0 {
		return spec, 0
	}
	size, err := strconv.Atoi(spec[at+1:])
	if err != nil {
		return spec, 0
	}
	return spec[:at], size
}
