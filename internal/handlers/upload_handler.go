package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/storage"
)

const DefaultMaxUploadSize = 25 << 20

type UploadHandler struct {
	Store   storage.Store
	MaxSize int64
}

func NewUploadHandler(store storage.Store, maxSize int64) *UploadHandler {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &UploadHandler{Store: store, MaxSize: maxSize}
}

// Upload stores the multipart "file" field and returns a file reference
// that can be attached to assignments, submissions, messages or projects.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	p := principal(c)
	if err := p.Require(auth.Everyone...); err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("file", "file is required")
	}
	if fh.Size > h.MaxSize {
		return apperr.Validation("file", fmt.Sprintf("file must be %dMB or smaller", h.MaxSize>>20))
	}

	f, err := fh.Open()
	if err != nil {
		return apperr.Internal("failed to read upload", err)
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := h.Store.Upload(c.UserContext(), f, fh.Size, fh.Filename, contentType)
	if err != nil {
		return apperr.Internal("failed to store file", err)
	}

	return created(c, "File uploaded", models.FileRef{
		FileName: fh.Filename,
		FileURL:  url,
		FileSize: fh.Size,
		FileType: contentType,
	})
}

// Download redirects to a short-lived link for the object behind the token.
func (h *UploadHandler) Download(c *fiber.Ctx) error {
	url, err := h.Store.PresignedURL(c.UserContext(), c.Params("*"))
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("file not found")
	}
	if err != nil {
		return apperr.Internal("failed to sign download", err)
	}
	return c.Redirect(url, fiber.StatusFound)
}
