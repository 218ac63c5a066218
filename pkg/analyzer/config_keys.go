package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

var configKeyAccess = []*regexp.Regexp{
	regexp.MustCompile(`config\['([^']+)'\]`),
	regexp.MustCompile(`config\["([^"]+)"\]`),
	regexp.MustCompile(`config\.([a-zA-Z][a-zA-Z0-9_-]*)`),
	regexp.MustCompile(`blockConfig\['([^']+)'\]`),
	regexp.MustCompile(`blockConfig\["([^"]+)"\]`),
	regexp.MustCompile(`blockConfig\.([a-zA-Z][a-zA-Z0-9_-]*)`),
}

// Manual row parsing compares the normalized first cell against literals.
var (
	manualRowParsing  = regexp.MustCompile(`toClassName\(cols\[0\]\.textContent\)`)
	manualKeyCompares = []*regexp.Regexp{
		regexp.MustCompile(`name === '([^']+)'`),
		regexp.MustCompile(`name === "([^"]+)"`),
		regexp.MustCompile(`name\.trim\(\) === '([^']+)'`),
		regexp.MustCompile(`name !== '([^']+)'`),
		regexp.MustCompile(`name !== "([^"]+)"`),
	}
)

// ExtractConfigKeys returns the sorted, de-duplicated configuration keys the
// code reads, either through a config object or through manual comparisons
// against the first cell of each row.
func ExtractConfigKeys(source string) []string {
	seen := make(map[string]struct{})

	for _, re := range configKeyAccess {
		for _, m := range re.FindAllStringSubmatch(source, -1) {
			key := m[1]
			if strings.ContainsAny(key, "()") || strings.Contains(key, "readBlockConfig") {
				continue
			}
			seen[key] = struct{}{}
		}
	}

	if manualRowParsing.MatchString(source) {
		for _, re := range manualKeyCompares {
			for _, m := range re.FindAllStringSubmatch(source, -1) {
				seen[m[1]] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
