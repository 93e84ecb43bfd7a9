package workspace

import (
	"time"

	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/table"
)

// Upload is one parsed file and its cleaning state.
type Upload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	// Table is the current data: the parsed file, or the output of the
	// last successful cleaning run.
	Table       *table.Table      `json:"data"`
	Processed   bool              `json:"processed"`
	Options     []cleaning.Option `json:"options,omitempty"`
	UploadedAt  time.Time         `json:"uploaded_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

// Rows returns the current row count.
func (u *Upload) Rows() int { return u.Table.Len() }

func (u *Upload) clone() *Upload {
	cp := *u
	if u.Options != nil {
		cp.Options = append([]cleaning.Option(nil), u.Options...)
	}
	if u.ProcessedAt != nil {
		t := *u.ProcessedAt
		cp.ProcessedAt = &t
	}
	return &cp
}
