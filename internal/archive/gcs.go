package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"

	"arstatements/internal/googleauth"
	"arstatements/internal/logger"
)

// GCSSink archives documents to a Google Cloud Storage bucket.
type GCSSink struct {
	service *storage.Service
	bucket  string
	prefix  string
	log     zerolog.Logger
}

// NewGCSSink authenticates with the shared Google service account.
func NewGCSSink(ctx context.Context, bucket, prefix string) (*GCSSink, error) {
	const op = "NewGCSSink"

	client, err := googleauth.HTTPClient(ctx, storage.DevstorageReadWriteScope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	service, err := storage.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create storage service: %w", op, err)
	}
	return &GCSSink{
		service: service,
		bucket:  bucket,
		prefix:  prefix,
		log:     logger.WithComponent("archive-gcs"),
	}, nil
}

// Archive implements Sink.
func (g *GCSSink) Archive(ctx context.Context, localPath string, dest Destination) (string, error) {
	const op = "GCSSink.Archive"

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	key := dest.Key(g.prefix, localPath)
	obj, err := g.service.Objects.Insert(g.bucket, &storage.Object{
		Name:        key,
		ContentType: contentType(localPath),
	}).Media(f).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%s: insert %s: %w", op, key, err)
	}

	g.log.Debug().Str("path", localPath).Str("object", obj.Name).Msg("Document archived")
	return "gs://" + g.bucket + "/" + obj.Name, nil
}
