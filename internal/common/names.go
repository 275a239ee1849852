package common

import (
	"path"
	"strings"
)

// UnknownStr is the String() fallback for enum values outside their range.
const UnknownStr = "unknown"

// PkgAlias returns the name a package is usually imported under: the last
// element of its path, without a major version element ("/v2") or a
// gopkg.in version suffix (".v3"). Returns "" for an empty path.
func PkgAlias(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	base := path.Base(pkgPath)
	if isMajorVersion(base) && path.Dir(pkgPath) != "." {
		base = path.Base(path.Dir(pkgPath))
	}

	if i := strings.LastIndex(base, ".v"); i > 0 && isMajorVersion(base[i+1:]) {
		base = base[:i]
	}

	return base
}

// isMajorVersion matches "v" followed by digits.
func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}

	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
