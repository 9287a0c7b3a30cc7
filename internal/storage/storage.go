package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/apperr"
)

const InvoiceURLTTL = 15 * time.Minute

// Store range les couvertures et les factures dans un bucket MinIO.
type Store struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

func NewStore(client *minio.Client, bucket, endpoint string, useSSL bool) *Store {
	return &Store{client: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL}
}

func CoverKey(bookID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("covers/%s%s", bookID, ext)
}

func InvoiceKey(orderID uuid.UUID) string {
	return fmt.Sprintf("invoices/%s.pdf", orderID)
}

// PublicURL construit l'URL directe d'un objet du bucket.
func (s *Store) PublicURL(key string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}

func (s *Store) PutCover(ctx context.Context, bookID uuid.UUID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := CoverKey(bookID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, "upload couverture minio")
	}
	return s.PublicURL(key), nil
}

func (s *Store) SaveInvoice(ctx context.Context, orderID uuid.UUID, pdf []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, InvoiceKey(orderID), bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	return errors.Wrap(err, "archivage facture minio")
}

// InvoiceURL retourne une URL signée valable 15 minutes.
func (s *Store) InvoiceURL(ctx context.Context, orderID uuid.UUID) (string, error) {
	key := InvoiceKey(orderID)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		// facture jamais archivée (rendu en échec)
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", apperr.NotFoundf("invoice for order %s not found", orderID)
		}
		return "", errors.Wrap(err, "stat facture minio")
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="facture-%s.pdf"`, orderID))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, InvoiceURLTTL, reqParams)
	if err != nil {
		return "", errors.Wrap(err, "url signée facture")
	}
	return u.String(), nil
}
