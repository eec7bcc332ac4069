// # internal/output/encode.go
package output

import (
	"strings"

	"github.com/google/uuid"
)

// maxStemLen bounds the readable part of an encoded file name so qualified
// names of any depth stay inside filesystem limits.
const maxStemLen = 96

var fileNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("focal://entry"))

// EntryFileName maps a qualified entry-point name to a filesystem-safe file
// name. The readable stem keeps identifier characters and replaces the rest,
// and a name-derived UUID suffix keeps distinct entry points from colliding
// after sanitization.
func EntryFileName(qualified string) string {
	stem := sanitize(qualified)
	if len(stem) > maxStemLen {
		stem = stem[:maxStemLen]
	}
	id := uuid.NewSHA1(fileNamespace, []byte(qualified))
	return stem + "-" + id.String() + ".rs"
}

func sanitize(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); i++ {
		b := name[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '_':
			sb.WriteByte(b)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
