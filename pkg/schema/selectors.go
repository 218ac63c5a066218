package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ordinalLabels names the first fields of a block by position.
var ordinalLabels = []string{"Title", "Content", "Image", "Description", "Link"}

var (
	nthChild      = regexp.MustCompile(`nth-child\((\d+)\)`)
	attributePart = regexp.MustCompile(`\[([^\]]+)\]`)
)

// ChildSelector selects the index-th (0-based) child with the given tag.
// An empty tag means div.
func ChildSelector(index int, tag string) string {
	if tag == "" {
		tag = "div"
	}
	return fmt.Sprintf("%s:nth-child(%d)", tag, index+1)
}

// ImageSelector selects the source of the index-th image.
func ImageSelector(index int) string {
	return fmt.Sprintf("img:nth-child(%d)[src]", index+1)
}

// ImageAltSelector selects the alt text of the index-th image.
func ImageAltSelector(index int) string {
	return fmt.Sprintf("img:nth-child(%d)[alt]", index+1)
}

// LabelForSelector derives a human label from a selector. Positional
// selectors use the ordinal table ("Field n" past its end), attribute
// selectors use the attribute name, anything else is "Content".
func LabelForSelector(selector string) string {
	if m := nthChild.FindStringSubmatch(selector); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			if n >= 1 && n <= len(ordinalLabels) {
				return ordinalLabels[n-1]
			}
			return fmt.Sprintf("Field %d", n)
		}
	}
	if m := attributePart.FindStringSubmatch(selector); m != nil {
		return capitalize(strings.Replace(m[1], "-", " ", 1))
	}
	return "Content"
}
