// file: internal/catalog/ids.go
// version: 1.0.0
// guid: 79f9de9e-27b6-4e68-9658-8a1fefcafac7

package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// nextID returns prefix + zero-padded (highest numeric suffix + 1). Ids
// whose remainder after the prefix does not start with a digit are ignored;
// trailing non-digits are dropped the way parseInt would.
func nextID(prefix string, ids []string) string {
	highest := 0
	for _, id := range ids {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end == 0 {
			continue
		}
		n, err := strconv.Atoi(rest[:end])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1)
}
