package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/catlog/internal/client/models"
)

// UploadImage posts img as multipart form data authenticated with token,
// which the caller resolves (see services.Entries). The default credential is
// not consulted here.
func (c *HTTPClient) UploadImage(ctx context.Context, img Image, meta models.UploadMetadata, token string) (*models.UploadResult, error) {
	if token == "" {
		return nil, ErrNoCredentials
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("image", filepath.Base(img.Name))
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, img.Body); err != nil {
		return nil, fmt.Errorf("read image %s: %w", img.Name, err)
	}
	if meta.CatEntryID > 0 {
		if err := mw.WriteField("catEntryId", strconv.FormatInt(meta.CatEntryID, 10)); err != nil {
			return nil, err
		}
	}
	if meta.UploadedBy > 0 {
		if err := mw.WriteField("uploadedBy", strconv.FormatInt(meta.UploadedBy, 10)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/catEntry/upload-image", &buf, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	b, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var res models.UploadResult
	if err := decodePayload(b, &res); err != nil {
		return nil, fmt.Errorf("decode upload result: %w", err)
	}
	return &res, nil
}
