package execadapter

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jgivc/encodetracker/internal/config"
	"github.com/jgivc/encodetracker/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessRunsCommandAndRecordsProgress(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	content := []byte("not really media")
	if err := os.WriteFile(filepath.Join(inputDir, "talk.mp4"), content, 0644); err != nil {
		t.Fatal(err)
	}

	a, err := NewExecAdapter(&config.ProcessorConfig{Command: "cp {{.Input}} {{.Output}}"}, inputDir, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	fp, err := entity.NewSourceFingerprint("talk.mp4", int64(len(content)), "aabb")
	if err != nil {
		t.Fatal(err)
	}

	j := entity.CreateNew(fp, filepath.Join(outputDir, "talk_edited.mp4"))

	if err := a.Process(context.Background(), j); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(j.OutputPath); err != nil {
		t.Fatalf("output was not produced: %v", err)
	}

	if j.ProgressCount() != 1 {
		t.Fatalf("expected one recorded segment, got %d", j.ProgressCount())
	}
}

func TestProcessCommandFailure(t *testing.T) {
	a, err := NewExecAdapter(&config.ProcessorConfig{Command: "false"}, t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	fp, err := entity.NewSourceFingerprint("talk.mp4", 10, "aabb")
	if err != nil {
		t.Fatal(err)
	}

	j := entity.CreateNew(fp, filepath.Join(t.TempDir(), "talk_edited.mp4"))

	if err := a.Process(context.Background(), j); err == nil {
		t.Fatal("expected command failure")
	}

	if j.ProgressCount() != 0 {
		t.Fatal("failed command must not record progress")
	}
}
