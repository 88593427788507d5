package polls

import (
	"context"
	"path"

	"github.com/classpulse/livepoll/internal/models"
)

// ObjectWriter stores a JSON document under key.
type ObjectWriter interface {
	PutJSON(ctx context.Context, key string, v interface{}) error
}

// ObjectArchive writes each finished poll as its own JSON object.
type ObjectArchive struct {
	w ObjectWriter
}

// NewObjectArchive creates an archive over w.
func NewObjectArchive(w ObjectWriter) *ObjectArchive {
	return &ObjectArchive{w: w}
}

// Archive implements Archiver.
func (a *ObjectArchive) Archive(ctx context.Context, rec models.PollRecord) error {
	return a.w.PutJSON(ctx, ArchiveKey(rec), rec)
}

// ArchiveKey returns polls/{yyyy}/{mm}/{dd}/{poll_id}.json in UTC.
func ArchiveKey(rec models.PollRecord) string {
	return path.Join("polls", rec.CreatedAt.UTC().Format("2006/01/02"), rec.ID.String()+".json")
}
