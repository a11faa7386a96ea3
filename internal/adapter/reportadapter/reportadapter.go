package reportadapter

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"strings"

	_ "embed"

	"github.com/jgivc/encodetracker/internal/config"
	"github.com/jgivc/encodetracker/internal/entity"
	"github.com/jgivc/encodetracker/internal/service/runner"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	defaultTitle = "Batch run report"
)

//go:embed templates/report.html
var defaultTemplateContent []byte

// Frontmatter is the optional YAML header of the report header file.
type Frontmatter struct {
	Title   string `yaml:"title"`
	Author  string `yaml:"author"`
	Enabled bool   `yaml:"enabled"`
}

type reportRow struct {
	*entity.ProcessingJob
}

func (r reportRow) StatusClass() string {
	return strings.ToLower(string(r.Status))
}

type reportContext struct {
	Title      string
	Author     string
	HeaderHTML template.HTML
	Jobs       []reportRow
	Stats      runner.Stats
}

// reportAdapter renders a run summary page. An optional markdown file with
// YAML frontmatter supplies the title and an intro section; enabled: false
// in the frontmatter turns the report off.
type reportAdapter struct {
	fs   afero.Fs
	cfg  *config.ReportConfig
	md   goldmark.Markdown
	tmpl *template.Template
	log  *slog.Logger
}

func NewReportAdapter(cfg *config.ReportConfig, log *slog.Logger) (*reportAdapter, error) {
	return NewReportAdapterWithFS(afero.NewOsFs(), cfg, log)
}

func NewReportAdapterWithFS(fs afero.Fs, cfg *config.ReportConfig, log *slog.Logger) (*reportAdapter, error) {
	tmpl, err := template.New("report").Parse(string(defaultTemplateContent))
	if err != nil {
		return nil, fmt.Errorf("cannot parse report template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)

	return &reportAdapter{
		fs:   fs,
		cfg:  cfg,
		md:   md,
		tmpl: tmpl,
		log:  log.With(slog.String("item", "ReportAdapter")),
	}, nil
}

func (a *reportAdapter) WriteReport(jobs []*entity.ProcessingJob, stats runner.Stats) error {
	fm, headerHTML, err := a.renderHeader()
	if err != nil {
		return fmt.Errorf("cannot render report header: %w", err)
	}

	if !fm.Enabled {
		a.log.Info("Report disabled by frontmatter", slog.String("header", a.cfg.HeaderFileName))

		return nil
	}

	rctx := reportContext{
		Title:      fm.Title,
		Author:     fm.Author,
		HeaderHTML: headerHTML,
		Stats:      stats,
	}
	for _, j := range jobs {
		rctx.Jobs = append(rctx.Jobs, reportRow{j})
	}

	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, &rctx); err != nil {
		return fmt.Errorf("cannot build report page: %w", err)
	}

	if err := afero.WriteFile(a.fs, a.cfg.ReportFileName, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write report file: %w", err)
	}

	a.log.Info("Report written", slog.String("path", a.cfg.ReportFileName), slog.Int("jobs", len(rctx.Jobs)))

	return nil
}

// renderHeader converts the optional markdown header to HTML. A missing file
// just means defaults.
func (a *reportAdapter) renderHeader() (Frontmatter, template.HTML, error) {
	fm := Frontmatter{Title: defaultTitle, Enabled: true}

	content, err := afero.ReadFile(a.fs, a.cfg.HeaderFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return fm, "", nil
		}

		return fm, "", fmt.Errorf("cannot read header file: %w", err)
	}

	var buf bytes.Buffer
	pc := parser.NewContext()

	if err := a.md.Convert(content, &buf, parser.WithContext(pc)); err != nil {
		return fm, "", fmt.Errorf("cannot convert markdown: %w", err)
	}

	if data := frontmatter.Get(pc); data != nil {
		if err := data.Decode(&fm); err != nil {
			return fm, "", fmt.Errorf("cannot decode frontmatter: %w", err)
		}
	}

	return fm, template.HTML(buf.String()), nil
}
