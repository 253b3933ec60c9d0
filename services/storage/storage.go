package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaterialsPrefix is the root of every uploaded academic material
const MaterialsPrefix = "academic_materials/"

var ErrObjectNotFound = errors.New("object not found")

// Object describes a stored blob
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// BlobStore is the content store used by the submission pipeline and the
// orphan sweep
type BlobStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	URL(key string) string
}

// MaterialKey builds the caller-scoped key academic_materials/{userID}/{fileName}
func MaterialKey(userID uint, fileName string) string {
	return fmt.Sprintf("%s%d/%s", MaterialsPrefix, userID, SafeFileName(fileName))
}

// UniqueMaterialKey is MaterialKey with a random suffix before the extension.
// It is used when the plain key already backs another record.
func UniqueMaterialKey(userID uint, fileName string) string {
	name := SafeFileName(fileName)
	ext := path.Ext(name)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s%d/%s-%s%s", MaterialsPrefix, userID, strings.TrimSuffix(name, ext), suffix, ext)
}

// EscapeKey percent-encodes every segment of key for use in a URL path. A
// literal '+' is encoded too since S3 reads it as a space.
func EscapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = strings.ReplaceAll(url.PathEscape(seg), "+", "%2B")
	}
	return strings.Join(segments, "/")
}

// SafeFileName strips directories and characters that would change the key's shape
func SafeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '/', r == '?', r == '#', r == '%':
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// ContentType returns the content type for a filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case ".ppt":
		return "application/vnd.ms-powerpoint"
	case ".txt":
		return "text/plain"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
