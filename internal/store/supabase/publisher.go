package supabase

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"

	storage "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// Publisher uploads exports to a Storage bucket and returns their public URL.
type Publisher struct {
	// The storage client keeps upload options on shared transport headers,
	// so uploads are serialized.
	mu sync.Mutex

	client *supabase.Client
	bucket string
	prefix string
}

// NewPublisher writes into bucket under the "exports/" folder.
func NewPublisher(client *supabase.Client, bucket string) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: "exports"}
}

// PublishExport uploads body as name, replacing an export of the same name.
func (p *Publisher) PublishExport(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	objectPath := path.Join(p.prefix, name)
	upsert := true
	cacheControl := "60"
	_, err := p.client.Storage.UploadFile(p.bucket, objectPath, body, storage.FileOptions{
		ContentType:  &contentType,
		CacheControl: &cacheControl,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to bucket %s: %w", objectPath, p.bucket, translate(err))
	}

	return p.client.Storage.GetPublicUrl(p.bucket, objectPath).SignedURL, nil
}
