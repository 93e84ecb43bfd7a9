package utils

import (
	"path/filepath"
	"strings"
)

// MimeType guesses the content type of an upload from its extension.
func MimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt":
		return "text/plain"
	}
	return "application/octet-stream"
}
