package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStorePutServeDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/api/uploads/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	ctx := context.Background()
	url, err := s.Put(ctx, "ab12_lease.pdf", strings.NewReader("signed"), 6, "application/pdf")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/api/uploads/ab12_lease.pdf" {
		t.Fatalf("url = %q", url)
	}

	srv := httptest.NewServer(http.StripPrefix("/api/uploads/", s.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/uploads/ab12_lease.pdf")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "signed" {
		t.Fatalf("GET = %d %q", resp.StatusCode, body)
	}

	if err := s.Delete(ctx, "ab12_lease.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ab12_lease.pdf")); !os.IsNotExist(err) {
		t.Fatalf("file still present: %v", err)
	}
	if err := s.Delete(ctx, "ab12_lease.pdf"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/api/uploads/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	for _, name := range []string{"", "..", "../etc/passwd", "a/b.txt", `a\b.txt`} {
		if _, err := s.Put(context.Background(), name, strings.NewReader("x"), 1, ""); err == nil {
			t.Errorf("Put(%q) should fail", name)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nested/file.txt", nil)
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("nested path status = %d, want 404", rec.Code)
	}
}

func TestNewMinioStoreValidation(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	if _, err := NewMinioStore(MinioOptions{Bucket: "attachments"}, logger); err == nil {
		t.Fatal("expected error without endpoint")
	}
	if _, err := NewMinioStore(MinioOptions{Endpoint: "localhost:9000"}, logger); err == nil {
		t.Fatal("expected error without bucket")
	}

	s, err := NewMinioStore(MinioOptions{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "attachments",
	}, logger)
	if err != nil {
		t.Fatalf("NewMinioStore: %v", err)
	}
	if got := s.ObjectURL("ab12_floorplan.png"); got != "http://localhost:9000/attachments/ab12_floorplan.png" {
		t.Fatalf("ObjectURL = %q", got)
	}

	s, err = NewMinioStore(MinioOptions{
		Endpoint:      "https://s3.example.com",
		Bucket:        "attachments",
		UseSSL:        true,
		PublicBaseURL: "https://cdn.example.com/",
	}, logger)
	if err != nil {
		t.Fatalf("NewMinioStore: %v", err)
	}
	if got := s.ObjectURL("x.pdf"); got != "https://cdn.example.com/attachments/x.pdf" {
		t.Fatalf("ObjectURL = %q", got)
	}
}
