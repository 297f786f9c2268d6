package problem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// EnumerateInstances resolves the instance files to solve. Explicit files
// win over the prefix directory; with only a prefix, every regular file in
// the directory is returned in natural order so "Call_7" sorts before
// "Call_18".
func EnumerateInstances(prefix string, files []string) ([]string, error) {
	if len(files) > 0 {
		out := make([]string, len(files))
		for i, f := range files {
			if prefix != "" {
				out[i] = filepath.Join(prefix, f)
			} else {
				out[i] = f
			}
		}
		return out, nil
	}
	if prefix == "" {
		return nil, fmt.Errorf("either instance files or a prefix directory must be given")
	}

	entries, err := os.ReadDir(prefix)
	if err != nil {
		return nil, fmt.Errorf("read instance directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, filepath.Join(prefix, e.Name()))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return naturalLess(filepath.Base(out[a]), filepath.Base(out[b]))
	})
	return out, nil
}

// naturalLess compares file names chunk-wise, numeric runs by value and
// the rest case-insensitively with '_' treated as a space.
func naturalLess(a, b string) bool {
	ap, bp := splitNatural(a), splitNatural(b)
	for i := 0; i < len(ap) && i < len(bp); i++ {
		if ap[i] == bp[i] {
			continue
		}
		an, aerr := parseChunk(ap[i])
		bn, berr := parseChunk(bp[i])
		if aerr == nil && berr == nil {
			return an < bn
		}
		if aerr == nil {
			return true
		}
		if berr == nil {
			return false
		}
		return ap[i] < bp[i]
	}
	return len(ap) < len(bp)
}

func parseChunk(s string) (uint64, error) {
	var n uint64
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, fmt.Errorf("not numeric")
		}
		n = n*10 + uint64(r-'0')
	}
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	return n, nil
}

func splitNatural(s string) []string {
	var parts []string
	var buf strings.Builder
	wasDigit := false
	for i, r := range strings.ToLower(strings.ReplaceAll(s, "_", " ")) {
		isDigit := unicode.IsDigit(r)
		if i > 0 && isDigit != wasDigit {
			parts = append(parts, buf.String())
			buf.Reset()
		}
		buf.WriteRune(r)
		wasDigit = isDigit
	}
	if buf.Len() > 0 {
		parts = append(parts, buf.String())
	}
	return parts
}
