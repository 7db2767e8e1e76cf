package billing

import (
	"context"
	"io"

	"go.uber.org/zap"

	"invoice-automation/backend/pkg/storage"
)

// maxAssetSize caps images fetched from object storage
const maxAssetSize = 10 << 20

// AssetResolver turns stored image references into image bytes
type AssetResolver interface {
	Resolve(ctx context.Context, payload ImagePayload) ImagePayload
}

type s3AssetResolver struct {
	client storage.S3Client
	logger *zap.Logger
}

// NewS3AssetResolver resolves "s3://bucket/key" payloads through the S3
// client. Other payloads are returned unchanged.
func NewS3AssetResolver(client storage.S3Client, logger *zap.Logger) AssetResolver {
	return &s3AssetResolver{client: client, logger: logger}
}

func (r *s3AssetResolver) Resolve(ctx context.Context, payload ImagePayload) ImagePayload {
	bucket, key, ok := storage.ParseS3URI(string(payload))
	if !ok {
		return payload
	}

	body, err := r.client.Download(ctx, bucket, key)
	if err != nil {
		r.logger.Warn("Failed to fetch image asset, rendering without it",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err))
		return nil
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxAssetSize))
	if err != nil {
		r.logger.Warn("Failed to read image asset, rendering without it",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err))
		return nil
	}
	return data
}

// isStoredReference reports whether the payload names an object storage key
func isStoredReference(payload ImagePayload) bool {
	_, _, ok := storage.ParseS3URI(string(payload))
	return ok
}

// passthroughResolver leaves payloads untouched
type passthroughResolver struct{}

func (passthroughResolver) Resolve(_ context.Context, payload ImagePayload) ImagePayload {
	return payload
}
