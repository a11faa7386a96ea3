package execadapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jgivc/encodetracker/internal/config"
	"github.com/jgivc/encodetracker/internal/entity"
)

// execAdapter runs a configured shell command per job. The transformation
// itself stays outside this system; this adapter only bridges to it. On
// success the whole source is recorded as a single processed segment
// (byte offsets), which is what lets a later run resume-classify the record.
type execAdapter struct {
	tmpl     *template.Template
	inputDir string
	log      *slog.Logger
}

type commandContext struct {
	Input  string
	Output string
}

func NewExecAdapter(cfg *config.ProcessorConfig, inputDir string, log *slog.Logger) (*execAdapter, error) {
	tmpl, err := template.New("command").Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("cannot parse processor command: %w", err)
	}

	return &execAdapter{
		tmpl:     tmpl,
		inputDir: inputDir,
		log:      log.With(slog.String("item", "ExecAdapter")),
	}, nil
}

func (a *execAdapter) Process(ctx context.Context, j *entity.ProcessingJob) error {
	input := filepath.Join(a.inputDir, j.Source.Filename)

	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, commandContext{Input: input, Output: j.OutputPath}); err != nil {
		return fmt.Errorf("cannot build processor command: %w", err)
	}

	parts := strings.Fields(buf.String())
	if len(parts) == 0 {
		return fmt.Errorf("processor command is empty")
	}

	if err := os.MkdirAll(filepath.Dir(j.OutputPath), 0755); err != nil {
		return fmt.Errorf("cannot create output dir: %w", err)
	}

	a.log.Info("Run processor command", slog.String("job_id", j.JobID), slog.String("command", parts[0]))

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("processor command failed: %w: %s", err, bytes.TrimSpace(output))
	}

	if j.Source.SizeBytes > 0 {
		if err := j.MarkSegmentProcessed(0, float64(j.Source.SizeBytes)); err != nil {
			return fmt.Errorf("cannot record progress: %w", err)
		}
	}

	return nil
}
