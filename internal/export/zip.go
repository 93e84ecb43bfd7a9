package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/KaramelBytes/qdata-clean/internal/utils"
)

// compress wraps data in a zip archive. CSV exports carry metadata and
// statistics in a <base>.meta.json entry since CSV has no place for them.
func compress(doc Document, format Format, opt Options, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	name := FileName(doc.Name, format, false, doc.ExportedAt)
	if err := addEntry(zw, name, doc, data); err != nil {
		return nil, err
	}
	if format == CSV && (opt.IncludeMetadata || opt.IncludeStatistics) {
		meta, err := utils.PrettyJSON(sidecar(doc, opt, false))
		if err != nil {
			return nil, err
		}
		if err := addEntry(zw, strings.TrimSuffix(name, ".csv")+".meta.json", doc, meta); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func addEntry(zw *zip.Writer, name string, doc Document, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: doc.ExportedAt,
	})
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("zip write %s: %w", name, err)
	}
	return nil
}
