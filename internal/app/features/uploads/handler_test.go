package uploads_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/teamline/internal/app/features/uploads"
	"github.com/dalemusser/teamline/internal/app/system/filestore"
	"github.com/dalemusser/teamline/internal/testutil"
	"go.uber.org/zap"
)

func multipartUpload(t *testing.T, filename, contents string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := fw.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file failed: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithUser(req, testutil.SomeUser())
}

func TestServeUpload_StoresAndReturnsURL(t *testing.T) {
	root := t.TempDir()
	store, err := filestore.NewLocal(root, "/files/attachments")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	h := uploads.NewHandler(store, zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeUpload(rec, multipartUpload(t, "Meeting Notes.TXT", "agenda"))
	rec.AssertStatus(t, http.StatusCreated)

	var resp struct {
		URL      string `json:"url"`
		FileName string `json:"fileName"`
		Size     int64  `json:"size"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "/files/attachments/attachments/") {
		t.Errorf("url = %q, want the public attachment prefix", resp.URL)
	}
	// The key is sanitized and lowercased; the original name is echoed back.
	if !strings.HasSuffix(resp.URL, "-meeting_notes.txt") {
		t.Errorf("url = %q, want a sanitized filename suffix", resp.URL)
	}
	if resp.FileName != "Meeting Notes.TXT" {
		t.Errorf("fileName = %q, want the original name", resp.FileName)
	}
	if resp.Size != int64(len("agenda")) {
		t.Errorf("size = %d, want %d", resp.Size, len("agenda"))
	}

	// The bytes landed under the storage root.
	key := strings.TrimPrefix(resp.URL, "/files/attachments/")
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "agenda" {
		t.Errorf("stored bytes = %q, want %q", data, "agenda")
	}
}

func TestServeUpload_RequiresFileField(t *testing.T) {
	store, err := filestore.NewLocal(t.TempDir(), "/files/attachments")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	h := uploads.NewHandler(store, zap.NewNop())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest("POST", "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithUser(req, testutil.SomeUser())

	rec := testutil.NewRecorder()
	h.ServeUpload(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "file field is required")
}

func TestServeUpload_UnconfiguredStorage(t *testing.T) {
	h := uploads.NewHandler(nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeUpload(rec, multipartUpload(t, "a.txt", "x"))
	rec.AssertStatus(t, http.StatusBadRequest)
}
