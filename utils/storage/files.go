package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ucmsdev/ucms-api/model"
)

// Directory conventions inside the store root.
const (
	CourseImageDir = "images/courses"
	ContentDirBase = "uploads/contents"
)

// Store is a local-disk file store rooted at a single directory. Stored
// paths are relative slash-separated paths; PublicURL turns them into
// absolute asset URLs.
type Store struct {
	root    string
	baseURL string
}

// NewStore creates a file store rooted at root, serving files under baseURL
func NewStore(root, baseURL string) *Store {
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Root returns the store's root directory
func (s *Store) Root() string {
	return s.root
}

// ContentDir returns the per-course content directory for a course id.
func ContentDir(courseID uint) string {
	return fmt.Sprintf("%s/%d", ContentDirBase, courseID)
}

// Abs resolves a stored relative path against the store root.
func (s *Store) Abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// Save writes an uploaded file under dir with a timestamp-prefixed name so
// same-named uploads cannot collide, and returns the stored relative path.
func (s *Store) Save(dir string, file *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(file.Filename))
	relPath := path.Join(dir, name)
	absPath := s.Abs(relPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(absPath)
		return "", fmt.Errorf("write stored file: %w", err)
	}

	return relPath, nil
}

// Remove unlinks a stored file. Callers treat failures as best-effort
// cleanup: log and continue, never fail the owning row mutation.
func (s *Store) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(s.Abs(relPath))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// PublicURL derives the absolute asset URL for a stored relative path
func (s *Store) PublicURL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return s.baseURL + "/" + relPath
}

// Classify sniffs the MIME type of an already-stored file and maps it to a
// content type. It reads the stored bytes, never the upload's filename, and
// must only be called after Save succeeded.
func (s *Store) Classify(relPath string) model.ContentType {
	mtype, err := mimetype.DetectFile(s.Abs(relPath))
	if err != nil {
		return model.ContentTypeOther
	}

	switch {
	case strings.HasPrefix(mtype.String(), "image/"):
		return model.ContentTypeImage
	case mtype.Is("application/pdf"):
		return model.ContentTypePDF
	case strings.HasPrefix(mtype.String(), "video/"):
		return model.ContentTypeVideo
	default:
		return model.ContentTypeOther
	}
}
