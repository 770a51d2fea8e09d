package document

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/futig/docchat/internal/pkg/validator"
)

const storageRoot = "user-files"

// storagePath builds user-files/{user}/{unix_ms}-{name}
func storagePath(userID, filename string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s",
		storageRoot,
		validator.SanitizeFilename(userID),
		at.UnixMilli(),
		validator.SanitizeFilename(filename),
	)
}

func isBlank(text string) bool {
	return strings.TrimFunc(text, unicode.IsSpace) == ""
}
