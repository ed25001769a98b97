// Package archive uploads generated documents to object storage for record keeping.
package archive

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Sink stores one local file and returns a reference to the stored copy.
type Sink interface {
	Archive(ctx context.Context, localPath string, dest Destination) (string, error)
}

// Kind is the document family, used as a folder level in the archive.
type Kind string

const (
	KindPDF   Kind = "PDF"
	KindExcel Kind = "EXCEL"
	KindLog   Kind = "LOGS"
)

// KindOf derives the kind from a file extension.
func KindOf(localPath string) Kind {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".xlsx", ".xls":
		return KindExcel
	default:
		return KindPDF
	}
}

// Destination locates a document in the archive.
type Destination struct {
	Kind Kind
	Date time.Time
}

// Key builds "<prefix>/<YYYY>/<MM>/<KIND>/<name>_<dd-mm-yyyy><ext>" for localPath.
func (d Destination) Key(prefix, localPath string) string {
	base := filepath.Base(localPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stamp := "_" + d.Date.Format("02-01-2006"); !strings.HasSuffix(stem, stamp) {
		stem += stamp
	}
	name := stem + ext

	kind := d.Kind
	if kind == "" {
		kind = KindOf(localPath)
	}
	return path.Join(strings.Trim(prefix, "/"), d.Date.Format("2006"), d.Date.Format("01"), string(kind), name)
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func contentType(localPath string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(localPath))]; ok {
		return ct
	}
	return "application/octet-stream"
}
