// Package blob stores supporting documents (bills, meter photos) in a GCS
// bucket and records them as Attachment rows. File contents are opaque to
// the application.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"icomag/internal/models"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Store uploads, signs and deletes attachments.
type Store struct {
	Client *storage.Client
	DB     *gorm.DB
	Log    zerolog.Logger

	Bucket string
	URLTTL time.Duration
}

// NewStore creates the GCS-backed attachment store. Application Default
// Credentials are assumed.
func NewStore(ctx context.Context, db *gorm.DB, log zerolog.Logger, bucket string, urlTTL time.Duration) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if urlTTL <= 0 {
		urlTTL = time.Hour
	}
	return &Store{Client: client, DB: db, Log: log, Bucket: bucket, URLTTL: urlTTL}, nil
}

// Upload streams a file into the bucket under a generated key and records
// the attachment.
func (s *Store) Upload(ctx context.Context, entityKind string, entityID uint, filename, contentType string, r io.Reader) (*models.Attachment, error) {
	key := fmt.Sprintf("attachments/%s/%s%s", entityKind, uuid.NewString(), path.Ext(filename))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.Client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	size, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("copy attachment to bucket: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload: %w", err)
	}

	attachment := models.Attachment{
		EntityKind:  entityKind,
		EntityID:    entityID,
		Filename:    filename,
		StorageKey:  key,
		ContentType: contentType,
		Size:        size,
	}
	if err := s.DB.Create(&attachment).Error; err != nil {
		// best effort: do not leave an orphaned object behind
		if delErr := s.Client.Bucket(s.Bucket).Object(key).Delete(ctx); delErr != nil {
			s.Log.Warn().Err(delErr).Str("key", key).Msg("orphaned attachment object left in bucket")
		}
		return nil, fmt.Errorf("record attachment: %w", err)
	}
	return &attachment, nil
}

// SignedURL returns a time-limited download URL for the attachment.
func (s *Store) SignedURL(attachmentID uint) (string, error) {
	var attachment models.Attachment
	if err := s.DB.First(&attachment, attachmentID).Error; err != nil {
		return "", err
	}

	url, err := s.Client.Bucket(s.Bucket).SignedURL(attachment.StorageKey, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(s.URLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sign attachment url: %w", err)
	}
	return url, nil
}

// Delete removes the attachment row and its bucket object. A missing bucket
// object is tolerated; the row is the source of truth.
func (s *Store) Delete(ctx context.Context, attachmentID uint) error {
	var attachment models.Attachment
	if err := s.DB.First(&attachment, attachmentID).Error; err != nil {
		return err
	}

	if err := s.Client.Bucket(s.Bucket).Object(attachment.StorageKey).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("delete attachment object: %w", err)
	}
	return s.DB.Delete(&attachment).Error
}

// Close releases the underlying storage client.
func (s *Store) Close() error {
	return s.Client.Close()
}
