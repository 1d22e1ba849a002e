package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"pdfbatch/internal/config"
	"pdfbatch/internal/infra/storage"
)

func minimalConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Upload.SpoolDir = filepath.Join(t.TempDir(), "spool")
	cfg.Output.Dir = filepath.Join(t.TempDir(), "uploads")
	return cfg
}

func get(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(method, path, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func TestNew_RoutesAndJSON404(t *testing.T) {
	app, err := New(Deps{Config: minimalConfig(t)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, path := range []string{"/health", "/api/health", "/metrics", "/ops/livez"} {
		if resp := get(t, app, http.MethodGet, path); resp.StatusCode != http.StatusOK {
			t.Fatalf("expected %s 200, got %d", path, resp.StatusCode)
		}
	}

	resp404 := get(t, app, http.MethodGet, "/does-not-exist")
	if resp404.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp404.StatusCode)
	}
	if got := resp404.Header.Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Fatalf("expected JSON error response content type, got %q", got)
	}
	var body map[string]any
	if err := json.NewDecoder(resp404.Body).Decode(&body); err != nil || body["error"] != "Not Found" {
		t.Fatalf("unexpected 404 body %v (%v)", body, err)
	}

	// both prefixes are wired to the batch handlers
	for _, path := range []string{"/convert-to-pdf", "/api/merge-pdfs"} {
		if resp := get(t, app, http.MethodPost, path); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected %s with no files to be 400, got %d", path, resp.StatusCode)
		}
	}
}

func TestNew_SPAFallback(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Server.PublicDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(cfg.Server.PublicDir, "index.html"), []byte("<html>spa</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	app, err := New(Deps{Config: cfg})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	resp := get(t, app, http.MethodGet, "/some/client/route")
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "spa") {
		t.Fatalf("expected index.html fallback, got %d %q", resp.StatusCode, data)
	}

	if resp := get(t, app, http.MethodGet, "/api/unknown"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected API namespace to stay JSON 404, got %d", resp.StatusCode)
	}
}

func TestOpenStore_SelectsByMode(t *testing.T) {
	ctx := context.Background()
	cfg := minimalConfig(t)

	s, err := OpenStore(ctx, cfg, nil)
	if err != nil || s != nil {
		t.Fatalf("inline mode should have no store, got %v %v", s, err)
	}

	cfg.Output.Mode = config.OutputDisk
	s, err = OpenStore(ctx, cfg, nil)
	if _, ok := s.(*storage.Disk); err != nil || !ok {
		t.Fatalf("expected disk store, got %T %v", s, err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg.Output.Mode = config.OutputRedis
	s, err = OpenStore(ctx, cfg, rdb)
	if _, ok := s.(*storage.Redis); err != nil || !ok {
		t.Fatalf("expected redis store, got %T %v", s, err)
	}
	if err := s.Save(ctx, "merged-1.pdf", []byte("x")); err != nil {
		t.Fatalf("save through redis store: %v", err)
	}

	cfg.Output.Mode = config.OutputS3
	cfg.S3.Bucket = "docs"
	cfg.S3.AccessKey, cfg.S3.SecretKey = "k", "s"
	s, err = OpenStore(ctx, cfg, nil)
	if _, ok := s.(*storage.S3); err != nil || !ok {
		t.Fatalf("expected s3 store, got %T %v", s, err)
	}

	cfg.Output.Mode = "ftp"
	if _, err := OpenStore(ctx, cfg, nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestNewJanitor_SchedulesTasksForStore(t *testing.T) {
	cfg := minimalConfig(t)

	disk, err := storage.NewDisk(cfg.Output.Dir)
	if err != nil {
		t.Fatalf("disk: %v", err)
	}
	if n := NewJanitor(cfg, disk).Len(); n != 2 {
		t.Fatalf("expected spool and retention tasks, got %d", n)
	}
	if n := NewJanitor(cfg, nil).Len(); n != 1 {
		t.Fatalf("expected only the spool task, got %d", n)
	}

	cfg.Upload.SpoolDir = ""
	if n := NewJanitor(cfg, nil).Len(); n != 0 {
		t.Fatalf("expected no tasks, got %d", n)
	}
}
