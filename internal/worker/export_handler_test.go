package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"

	"showcase/internal/export"
	"showcase/internal/resume"
	"showcase/internal/tasks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDropMissingPhoto(t *testing.T) {
	profile := &resume.Profile{Name: "Jane", PhotoURL: "profile-photos/1/a.png"}
	dropMissingPhoto(profile, []string{"profile-photos/1/other.png"})
	if profile.PhotoURL == "" {
		t.Fatal("photo dropped although it was not reported missing")
	}

	dropMissingPhoto(profile, []string{"profile-photos/1/a.png"})
	if profile.PhotoURL != "" {
		t.Fatalf("photo = %q, want empty", profile.PhotoURL)
	}

	dropMissingPhoto(nil, []string{"x"})
}

func TestCheckInventoryDoesNotPanicOnMismatch(t *testing.T) {
	blocks := []resume.ContentBlock{{Key: "profile"}, {Key: resume.SectionBlockKey(0)}}
	checkInventory(discardLogger(), blocks, []string{"section-0"})
	checkInventory(discardLogger(), blocks, []string{"profile", "section-0"})
}

func TestFailureLabel(t *testing.T) {
	if got := failureLabel(fmt.Errorf("wrap: %w", export.ErrEmission)); got != string(export.CodeEmission) {
		t.Fatalf("label = %s", got)
	}
	if got := failureLabel(errors.New("db down")); got != "SYSTEM" {
		t.Fatalf("label = %s", got)
	}
}

func TestIsFinalAsynqAttemptWithoutTaskContext(t *testing.T) {
	if isFinalAsynqAttempt(context.Background()) {
		t.Fatal("plain context must not count as final attempt")
	}
}

func TestProcessTaskRejectsBadPayload(t *testing.T) {
	h := NewExportTaskHandler(newTestDB(t), newFakeStorage(), nil, nil, nil, discardLogger(), "s", "http://api")

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeExportPDF, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestProcessTaskSkipsMissingResume(t *testing.T) {
	h := NewExportTaskHandler(newTestDB(t), newFakeStorage(), nil, nil, nil, discardLogger(), "s", "http://api")

	task, err := tasks.NewExportPDFTask(404, "corr")
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("expected nil for missing resume, got %v", err)
	}
}
