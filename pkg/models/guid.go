package models

import (
	"fmt"
	"strings"
)

// CanonicalID regroups a 16-hex-character GUID into the canonical node
// identifier format: four colon-separated groups of four characters,
// lowercase (e.g. "0123456789abcdef" -> "0123:4567:89ab:cdef").
func CanonicalID(guid string) (string, error) {
	if len(guid) != 16 {
		return "", fmt.Errorf("guid %q: want 16 hex characters, got %d", guid, len(guid))
	}
	guid = strings.ToLower(guid)
	for i := 0; i < len(guid); i++ {
		c := guid[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return "", fmt.Errorf("guid %q: invalid hex character %q", guid, c)
	}
	return guid[0:4] + ":" + guid[4:8] + ":" + guid[8:12] + ":" + guid[12:16], nil
}
