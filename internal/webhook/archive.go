package webhook

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"medcrm_backend/internal/adapters/storage"
	"medcrm_backend/platform/logger"
)

const archiveTimeout = 5 * time.Second

// Archiver keeps a copy of every raw webhook body for later inspection.
// A nil Archiver or one without storage does nothing.
type Archiver struct {
	storage storage.StorageService
	bucket  string
	log     *logger.Logger
	now     func() time.Time
}

func NewArchiver(svc storage.StorageService, bucket string, log *logger.Logger) *Archiver {
	return &Archiver{
		storage: svc,
		bucket:  bucket,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Archive stores body under <kind>/<yyyy>/<mm>/<dd>/. Failures are logged and
// returned; callers never block intake on them.
func (a *Archiver) Archive(ctx context.Context, kind string, body []byte) (string, error) {
	if a == nil || a.storage == nil {
		return "", nil
	}
	const contentType = "application/json"
	if err := a.storage.ValidateFileSize(int64(len(body))); err != nil {
		a.log.Warn("webhook payload not archived", "kind", kind, "error", err)
		return "", err
	}
	if err := a.storage.ValidateContentType(contentType); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	folder := fmt.Sprintf("%s/%s", kind, a.now().Format("2006/01/02"))
	key, err := a.storage.UploadFile(ctx, a.bucket, folder, "payload.json", contentType, bytes.NewReader(body), int64(len(body)))
	if err != nil {
		a.log.Warn("webhook payload archive failed", "kind", kind, "error", err)
		return "", err
	}
	return key, nil
}
