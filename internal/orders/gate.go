package orders

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/catalog"
)

// EntitlementStore is the slice of the order store the download gate needs.
type EntitlementStore interface {
	FindByID(ctx context.Context, id string) (*Order, error)
	ClaimDownload(ctx context.Context, id string) (count int, claimed bool, err error)
}

// ModelFiles looks up the asset URLs of the purchased model.
type ModelFiles interface {
	ModelFileURLs(ctx context.Context, modelID string) (excelURL, fileURL string, err error)
}

// FileResolver maps a stored asset URL to a readable path on disk.
type FileResolver interface {
	Resolve(url string) (path string, ok bool)
}

// Grant is a successful gate decision: the file may be streamed as-is.
type Grant struct {
	Order       *Order
	Path        string
	ContentType string
	Filename    string
}

// Gate decides whether a caller may download the asset behind an order.
// Every denial comes back as ErrNotEntitled; the actual cause is only
// logged, so callers can't probe expiry vs quota vs ownership.
type Gate struct {
	Store  EntitlementStore
	Models ModelFiles
	Files  FileResolver
	Log    logrus.FieldLogger

	now func() time.Time // test hook
}

func (g *Gate) clock() time.Time {
	if g.now != nil {
		return g.now()
	}
	return time.Now().UTC()
}

func (g *Gate) Authorize(ctx context.Context, email, orderID string) (*Grant, error) {
	o, err := g.Store.FindByID(ctx, orderID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotEntitled
		}
		return nil, err
	}

	log := g.Log.WithFields(logrus.Fields{"order_id": o.ID, "email": email})
	if !strings.EqualFold(o.CustomerEmail, email) {
		log.Warn("download denied: order owned by another customer")
		return nil, ErrNotEntitled
	}
	if o.Status != StatusCompleted {
		log.WithField("status", o.Status).Warn("download denied: order not completed")
		return nil, ErrNotEntitled
	}
	if o.DownloadExpires == nil || !o.DownloadExpires.After(g.clock()) {
		log.Warn("download denied: window expired")
		return nil, ErrNotEntitled
	}
	if o.DownloadCount >= o.MaxDownloads {
		log.WithField("count", o.DownloadCount).Warn("download denied: quota exhausted")
		return nil, ErrNotEntitled
	}

	// excel_url is authoritative, file_url the fallback. A missing file is a
	// distinct failure and must not consume a download slot. A failing model
	// store is neither: that propagates as an internal error.
	path, err := g.resolve(ctx, o)
	if err != nil {
		if errors.Is(err, ErrFileUnavailable) {
			log.Warn("download failed: no asset on disk")
			return nil, ErrFileUnavailable
		}
		return nil, err
	}

	// Quota re-check at write time: the guarded UPDATE closes the window
	// between the read above and this claim.
	count, claimed, err := g.Store.ClaimDownload(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		log.Warn("download denied: quota exhausted at claim")
		return nil, ErrNotEntitled
	}
	o.DownloadCount = count

	log.WithFields(logrus.Fields{
		"count": count,
		"limit": o.MaxDownloads,
	}).Info("download granted")

	ext := filepath.Ext(path)
	return &Grant{
		Order:       o,
		Path:        path,
		ContentType: contentTypeForExt(ext),
		Filename:    attachmentName(o.ModelTitle, ext),
	}, nil
}

func (g *Gate) resolve(ctx context.Context, o *Order) (string, error) {
	excelURL, fileURL, err := g.Models.ModelFileURLs(ctx, o.ModelID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return "", ErrFileUnavailable
		}
		return "", err
	}
	for _, url := range []string{excelURL, fileURL} {
		if url == "" {
			continue
		}
		if p, ok := g.Files.Resolve(url); ok {
			return p, nil
		}
	}
	return "", ErrFileUnavailable
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	case ".xls":
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}

// attachmentName derives a download filename from the model title, keeping
// only [A-Za-z0-9._-].
func attachmentName(title, ext string) string {
	var b strings.Builder
	for _, r := range strings.ReplaceAll(title, " ", "_") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "model"
	}
	return name + ext
}
