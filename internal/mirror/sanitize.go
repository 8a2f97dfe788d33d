package mirror

import "strings"

// SanitizePlate maps a plate to a key-safe segment. The mirror's addressing
// scheme reserves separator and pattern characters, and real plates carry
// dots and spaces ("51F-123.45"), so anything outside [A-Za-z0-9_-] becomes
// an underscore.
func SanitizePlate(plate string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, plate)
}
