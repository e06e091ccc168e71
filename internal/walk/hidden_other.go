//go:build !windows

package walk

import "strings"

func isHidden(_ string, name string) bool {
	return strings.HasPrefix(name, ".")
}
