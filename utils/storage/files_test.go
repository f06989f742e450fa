package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ucmsdev/ucms-api/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), "http://localhost:8080/assets")
}

// uploadHeader builds a *multipart.FileHeader the way Fiber would hand it
// to a handler.
func uploadHeader(t *testing.T, fieldName, fileName string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	return req.MultipartForm.File[fieldName][0]
}

func TestSaveStoresTimestampPrefixedFile(t *testing.T) {
	s := newTestStore(t)

	rel, err := s.Save("uploads/contents/1", uploadHeader(t, "file", "notes.pdf", []byte("%PDF-1.4 test")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(rel, "uploads/contents/1/") {
		t.Errorf("stored path %q not under requested dir", rel)
	}
	if !strings.HasSuffix(rel, "_notes.pdf") {
		t.Errorf("stored path %q lost the original file name", rel)
	}

	data, err := os.ReadFile(s.Abs(rel))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "%PDF-1.4 test" {
		t.Errorf("stored content = %q", data)
	}
}

func TestClassifySniffsStoredBytes(t *testing.T) {
	s := newTestStore(t)

	pngSig := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

	cases := []struct {
		name     string
		fileName string
		content  []byte
		want     model.ContentType
	}{
		// Extension must not matter, only the bytes
		{"pdf named txt", "lecture.txt", []byte("%PDF-1.7\n%some pdf body"), model.ContentTypePDF},
		{"png", "diagram.png", pngSig, model.ContentTypeImage},
		{"plain text", "readme.pdf", []byte("just some text"), model.ContentTypeOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rel, err := s.Save("uploads/contents/2", uploadHeader(t, "file", tc.fileName, tc.content))
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if got := s.Classify(rel); got != tc.want {
				t.Errorf("Classify(%s) = %q, want %q", tc.fileName, got, tc.want)
			}
		})
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	rel, err := s.Save("images/courses", uploadHeader(t, "image", "cover.png", []byte("binary")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Remove(rel); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(s.Abs(rel)); !os.IsNotExist(err) {
		t.Errorf("file still exists after Remove")
	}

	// Missing files and empty paths are not errors
	if err := s.Remove(rel); err != nil {
		t.Errorf("Remove on missing file: %v", err)
	}
	if err := s.Remove(""); err != nil {
		t.Errorf("Remove on empty path: %v", err)
	}
}

func TestPublicURL(t *testing.T) {
	s := NewStore(t.TempDir(), "http://cdn.example.com/assets/")

	if got := s.PublicURL("images/courses/1_a.png"); got != "http://cdn.example.com/assets/images/courses/1_a.png" {
		t.Errorf("PublicURL = %q", got)
	}
	if got := s.PublicURL(""); got != "" {
		t.Errorf("PublicURL of empty path = %q, want empty", got)
	}
}

func TestContentDir(t *testing.T) {
	if got := ContentDir(42); got != "uploads/contents/42" {
		t.Errorf("ContentDir(42) = %q", got)
	}
}
