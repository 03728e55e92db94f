package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/utils"
)

// ErrNotFound is returned for a file token that does not resolve to an object.
var ErrNotFound = errors.New("file not found")

// Uploader stores a file and returns the URL clients should use for it.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, size int64, filename, contentType string) (string, error)
}

// Store is an Uploader that can also hand out short-lived download links.
type Store interface {
	Uploader
	PresignedURL(ctx context.Context, token string) (string, error)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey names an upload as {unixMillis}-{sanitised base name}.
func ObjectKey(now time.Time, filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name)
}

// Links turns object keys into client URLs. Without a public base URL the key
// is sealed into an opaque /api/files/ token.
type Links struct {
	PublicURL string
	Secret    string
}

func (l Links) URLFor(key string) (string, error) {
	if l.PublicURL != "" {
		return strings.TrimRight(l.PublicURL, "/") + "/" + key, nil
	}
	token, err := utils.Seal(key, l.Secret)
	if err != nil {
		return "", fmt.Errorf("seal object key: %w", err)
	}
	return "/api/files/" + token, nil
}

// KeyOf resolves a token issued by URLFor back to its object key.
func (l Links) KeyOf(token string) (string, error) {
	key, err := utils.Open(strings.TrimPrefix(token, "/"), l.Secret)
	if err != nil {
		return "", ErrNotFound
	}
	return key, nil
}
