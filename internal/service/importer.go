package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"github.com/yizhiakuya/MemeStore/internal/logger"
)

// ImporterConfig holds tunables for remote image import.
type ImporterConfig struct {
	MaxFileSizeMB int
	FetchTimeout  time.Duration
}

// Importer fetches an image over HTTP and feeds it into the create pipeline.
type Importer struct {
	memes    *MemeService
	client   *resty.Client
	logger   *logger.Logger
	maxBytes int64
}

// NewImporter creates a new Importer.
func NewImporter(memes *MemeService, log *logger.Logger, cfg *ImporterConfig) *Importer {
	maxMB := 10
	timeout := 30 * time.Second
	if cfg != nil {
		if cfg.MaxFileSizeMB > 0 {
			maxMB = cfg.MaxFileSizeMB
		}
		if cfg.FetchTimeout > 0 {
			timeout = cfg.FetchTimeout
		}
	}

	client := resty.New()
	// Bounded fetch so a slow remote cannot pin the request
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(3))

	return &Importer{
		memes:    memes,
		client:   client,
		logger:   log,
		maxBytes: int64(maxMB) * 1024 * 1024,
	}
}

// ImportInput carries an import-by-URL request.
type ImportInput struct {
	URL         string
	Title       *string
	Description *string
	CategoryID  *string
	TagNames    []string
}

// Import downloads the image at in.URL and runs the image create pipeline on
// its bytes.
func (i *Importer) Import(ctx context.Context, in *ImportInput) (*domain.Meme, error) {
	parsed, err := url.Parse(in.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, domain.Validation("a valid http(s) image URL is required")
	}

	resp, err := i.client.R().SetContext(ctx).Get(in.URL)
	if err != nil {
		return nil, domain.StorageErr("failed to fetch remote image", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, domain.StorageErr(fmt.Sprintf("remote returned status %d", resp.StatusCode()), nil)
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, domain.Validation("remote image is empty")
	}
	if int64(len(body)) > i.maxBytes {
		return nil, domain.Validation("remote image exceeds the size limit")
	}

	contentType := resp.Header().Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	contentType = strings.TrimSpace(contentType)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.Validation("remote content is not an image")
	}

	filename := path.Base(parsed.Path)
	if filename == "/" || filename == "." || filename == "" {
		filename = "import"
	}

	i.logger.WithFields(logger.Fields{
		"url":  in.URL,
		"size": len(body),
	}).Info("Importing remote image")

	return i.memes.CreateMeme(ctx, &CreateMemeInput{
		Type:        domain.MemeTypeImage,
		Title:       in.Title,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		TagNames:    in.TagNames,
		File: &FileUpload{
			Data:     body,
			Filename: filename,
			MimeType: contentType,
		},
	})
}
