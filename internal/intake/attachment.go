package intake

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// AllowedExtensions lists the upload types accepted for a case.
var AllowedExtensions = []string{"pdf", "jpg", "jpeg", "png", "zip", "doc", "docx", "xls", "xlsx"}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// CheckExtension rejects files whose extension is not allowed.
func CheckExtension(name string) error {
	ext := Extension(name)
	for _, a := range AllowedExtensions {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
}

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	repeatedSep = regexp.MustCompile(`[_.-]{2,}`)
)

const maxFilenameLen = 100

// SanitizeFilename keeps letters, digits, dot, dash and underscore and
// collapses runs of separators. The extension survives truncation.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	s := unsafeChars.ReplaceAllString(base, "_")
	s = repeatedSep.ReplaceAllStringFunc(s, func(m string) string {
		if strings.Contains(m, ".") {
			return "."
		}
		return m[:1]
	})
	s = strings.Trim(s, "._-")
	if s == "" {
		return "file"
	}
	if len(s) > maxFilenameLen {
		ext := filepath.Ext(s)
		if len(ext) >= maxFilenameLen {
			ext = ""
		}
		s = s[:maxFilenameLen-len(ext)] + ext
	}
	return s
}

// StorageKey builds "<owner>/<case>/<unix ms>-<8 hex>-<safe name>". rnd may be
// nil to use crypto/rand.
func StorageKey(owner uint, caseID, name string, now time.Time, rnd io.Reader) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	b := make([]byte, 4)
	if _, err := io.ReadFull(rnd, b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%s/%d-%s-%s", owner, caseID, now.UnixMilli(), hex.EncodeToString(b), SanitizeFilename(name)), nil
}
