package converters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	maxFileSizeMB  = 20
	maxPagesApprox = 20
	// PDFs average roughly half a megabyte per page; good enough for a
	// pre-upload estimate without opening the file.
	mbPerPDFPage = 0.5
)

// CheckOversize reports whether a file exceeds the size limits and, if so, a
// human-readable reason. A stat failure is treated as not oversized; the
// conversion itself will surface the real error.
func CheckOversize(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil {
		return false, ""
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	if sizeMB > maxFileSizeMB {
		return true, fmt.Sprintf("file size (%.1fMB) exceeds %dMB limit", sizeMB, maxFileSizeMB)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages := int(sizeMB / mbPerPDFPage)
		if pages > maxPagesApprox {
			return true, fmt.Sprintf("estimated page count (%d) exceeds %d pages", pages, maxPagesApprox)
		}
	}
	return false, ""
}
