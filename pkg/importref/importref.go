// SPDX-License-Identifier: MPL-2.0

package importref

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindBareName is a plain identifier resolved by searching every root.
	KindBareName Kind = iota
	// KindRelativePath is resolved against the requesting file's directory.
	KindRelativePath
	// KindAbsolutePath is probed as-is.
	KindAbsolutePath
	// KindRemoteURL is fetched over HTTPS.
	KindRemoteURL
)

const (
	// StylePOSIX treats only "/" as a path separator.
	StylePOSIX Style = "posix"
	// StyleWindows accepts "/" and "\" separators, drive letters and UNC paths.
	StyleWindows Style = "windows"

	// SecureScheme is the only URL scheme that is fetched remotely.
	SecureScheme = "https://"
)

// ErrInvalidStyle is the sentinel error wrapped by InvalidStyleError.
var ErrInvalidStyle = errors.New("invalid path style")

type (
	// Kind is the classification of a module reference.
	Kind int

	// Style selects the path syntax used to classify references.
	Style string

	// InvalidStyleError is returned when a Style value is not recognized.
	InvalidStyleError struct {
		Value Style
	}
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindBareName:
		return "bare name"
	case KindRelativePath:
		return "relative path"
	case KindAbsolutePath:
		return "absolute path"
	case KindRemoteURL:
		return "remote url"
	default:
		return "unknown"
	}
}

// IsPath reports whether the kind names exactly one filesystem candidate.
func (k Kind) IsPath() bool {
	return k == KindRelativePath || k == KindAbsolutePath
}

// Error implements the error interface.
func (e *InvalidStyleError) Error() string {
	return fmt.Sprintf("invalid path style %q (valid: %s, %s)", e.Value, StylePOSIX, StyleWindows)
}

// Unwrap returns ErrInvalidStyle for errors.Is() compatibility.
func (e *InvalidStyleError) Unwrap() error { return ErrInvalidStyle }

// Validate returns nil if the style is one of the defined styles.
func (s Style) Validate() error {
	switch s {
	case StylePOSIX, StyleWindows:
		return nil
	default:
		return &InvalidStyleError{Value: s}
	}
}

// String returns the string representation of the Style.
func (s Style) String() string { return string(s) }

// Separators returns the path separators recognized by the style.
func (s Style) Separators() string {
	if s == StyleWindows {
		return `/\`
	}
	return "/"
}

// Classify returns the kind of ref under the given path style.
func Classify(ref string, style Style) Kind {
	if IsSecureURL(ref) {
		return KindRemoteURL
	}
	// Something that looks like a URL but uses another scheme is never a path.
	if hasScheme(ref) {
		return KindBareName
	}
	if IsAbs(ref, style) {
		return KindAbsolutePath
	}
	if isDotRelative(ref, style) || strings.ContainsAny(ref, style.Separators()) {
		return KindRelativePath
	}
	return KindBareName
}

// IsSecureURL reports whether ref starts with the https scheme.
func IsSecureURL(ref string) bool {
	return len(ref) >= len(SecureScheme) && strings.EqualFold(ref[:len(SecureScheme)], SecureScheme)
}

// IsAbs reports whether ref is an absolute path under style.
func IsAbs(ref string, style Style) bool {
	if strings.HasPrefix(ref, "/") {
		return true
	}
	if style != StyleWindows {
		return false
	}
	if strings.HasPrefix(ref, `\`) {
		return true
	}
	// Drive letter: C:\ or C:/
	return len(ref) >= 3 && isLetter(ref[0]) && ref[1] == ':' && (ref[2] == '\\' || ref[2] == '/')
}

// hasScheme reports whether ref starts with "<scheme>://".
func hasScheme(ref string) bool {
	scheme, _, found := strings.Cut(ref, "://")
	if !found || scheme == "" {
		return false
	}
	for i := 0; i < len(scheme); i++ {
		c := scheme[i]
		if isLetter(c) || (i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.')) {
			continue
		}
		return false
	}
	return true
}

func isDotRelative(ref string, style Style) bool {
	for _, sep := range style.Separators() {
		if strings.HasPrefix(ref, "."+string(sep)) || strings.HasPrefix(ref, ".."+string(sep)) {
			return true
		}
	}
	return ref == "." || ref == ".."
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
