package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/samber/oops"
)

// MinioImageStore dépose les images produits dans un bucket MinIO.
type MinioImageStore struct {
	client *minio.Client
	bucket string
}

func NewMinioImageStore(client *minio.Client, bucket string) *MinioImageStore {
	return &MinioImageStore{client: client, bucket: bucket}
}

// Upload range l'image sous products/<id>/ avec un nom unique et renvoie son URL publique.
func (s *MinioImageStore) Upload(ctx context.Context, productID, filename, contentType string, size int64, r io.Reader) (string, error) {
	object := fmt.Sprintf("products/%s/%s%s", productID, uuid.NewString(), strings.ToLower(path.Ext(filename)))

	_, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", oops.Code("IMAGE_UPLOAD_FAILED").With("product_id", productID, "object", object).Wrap(err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.client.EndpointURL().String(), "/"), s.bucket, object), nil
}
