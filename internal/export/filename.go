package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileName returns <base>_processed_<YYYY-MM-DD>.<format>, plus .zip when
// compressed. base is the original file name without its last extension.
func FileName(original string, format Format, compressed bool, at time.Time) string {
	base := filepath.Base(original)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == string(filepath.Separator) {
		base = ""
	}
	name := fmt.Sprintf("%s_processed_%s.%s", base, at.UTC().Format("2006-01-02"), format)
	if compressed {
		name += ".zip"
	}
	return name
}

// ContentType returns the MIME type of an export.
func ContentType(format Format, compressed bool) string {
	if compressed {
		return "application/zip"
	}
	switch format {
	case CSV:
		return "text/csv; charset=utf-8"
	case JSON:
		return "application/json"
	}
	return "application/octet-stream"
}
