package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"showcase/internal/database"
	"showcase/internal/storage"
)

func TestObjectEmitterUploadsPDF(t *testing.T) {
	store := newFakeStorage()
	e := &objectEmitter{store: store, key: "exports/1/2/abc/Jane_Doe.pdf"}

	if err := e.Emit(context.Background(), "Jane_Doe.pdf", []byte("%PDF-1.3")); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got := string(store.objects["exports/1/2/abc/Jane_Doe.pdf"]); got != "%PDF-1.3" {
		t.Fatalf("stored %q", got)
	}
	if store.types["exports/1/2/abc/Jane_Doe.pdf"] != "application/pdf" {
		t.Fatalf("content type = %q", store.types["exports/1/2/abc/Jane_Doe.pdf"])
	}
}

func TestObjectEmitterReportsUploadFailure(t *testing.T) {
	store := newFakeStorage()
	store.failPut = errors.New("bucket gone")
	e := &objectEmitter{store: store, key: "k"}

	if err := e.Emit(context.Background(), "a.pdf", []byte("x")); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileEmitterWritesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	e := &FileEmitter{Dir: dir}

	if err := e.Emit(context.Background(), "../Jane_Doe.pdf", []byte("%PDF-1.3")); err != nil {
		t.Fatalf("emit: %v", err)
	}
	want := filepath.Join(dir, "Jane_Doe.pdf")
	if e.Path != want {
		t.Fatalf("path = %s, want %s", e.Path, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.3" {
		t.Fatalf("content = %q", data)
	}
	if _, err := os.Stat(want + ".part"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
}

func TestExportStatusTogglesColumn(t *testing.T) {
	db := newTestDB(t)
	row := database.Resume{Title: "CV", UserID: 1}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	status := &exportStatus{db: db, resumeID: row.ID, now: func() time.Time { return started }}
	ctx := context.Background()

	read := func() database.Resume {
		var got database.Resume
		if err := db.First(&got, row.ID).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		return got
	}

	if err := status.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	got := read()
	if got.ExportStatus != database.ExportStatusExporting {
		t.Fatalf("status after begin = %q", got.ExportStatus)
	}
	if got.ExportStartedAt == nil || !got.ExportStartedAt.Equal(started) {
		t.Fatalf("started at after begin = %v", got.ExportStartedAt)
	}
	if err := status.End(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	got = read()
	if got.ExportStatus != database.ExportStatusIdle || got.ExportStartedAt != nil {
		t.Fatalf("after end: status %q started %v", got.ExportStatus, got.ExportStartedAt)
	}
}

func TestObjectBackground(t *testing.T) {
	store := newFakeStorage()
	store.objects["backgrounds/paper.png"] = []byte("png-bytes")
	ctx := context.Background()

	data, err := ObjectBackground{Store: store, Key: " backgrounds/paper.png "}.LoadBackground(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("data = %q", data)
	}

	_, err = ObjectBackground{Store: store, Key: "backgrounds/missing.png"}.LoadBackground(ctx)
	if err == nil || !storage.IsNoSuchKey(err) {
		t.Fatalf("expected no such key, got %v", err)
	}
}
