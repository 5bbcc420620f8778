package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/jedib0t/go-pretty/v6/table"
	"kubegems.io/benchx/pkg/types"
)

const (
	ReportFileName  = "report.json"
	BundleMediaType = "application/gzip"
)

func WriteReport(dir string, report *types.Report) (string, error) {
	content, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(filename, content, 0o644); err != nil {
		return "", fmt.Errorf("write report:%s %w", filename, err)
	}
	return filename, nil
}

func ReadReport(filename string) (*types.Report, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	report := &types.Report{}
	if err := json.Unmarshal(content, report); err != nil {
		return nil, fmt.Errorf("parse report:%s %w", filename, err)
	}
	return report, nil
}

// Uploader stores a bundle remotely and returns where it went.
type Uploader interface {
	Upload(ctx context.Context, name string, contentType string, open func() (io.ReadCloser, error)) (string, error)
}

// Publisher writes report.json into Dir, then bundles Dir and uploads the
// bundle when an Uploader is set.
type Publisher struct {
	Dir      string
	Uploader Uploader
}

func (p *Publisher) Publish(ctx context.Context, report *types.Report) error {
	log := logr.FromContextOrDiscard(ctx)
	if p.Dir == "" {
		return nil
	}
	filename, err := WriteReport(p.Dir, report)
	if err != nil {
		return err
	}
	log.Info("report written", "file", filename)

	if p.Uploader == nil {
		return nil
	}
	bundlefile := filepath.Join(os.TempDir(), "benchx-"+report.ID+".tar.gz")
	defer os.Remove(bundlefile)

	d, err := Bundle(ctx, p.Dir, bundlefile)
	if err != nil {
		return fmt.Errorf("bundle %s: %w", p.Dir, err)
	}
	url, err := p.Uploader.Upload(ctx, report.ID+".tar.gz", BundleMediaType, func() (io.ReadCloser, error) {
		return os.Open(bundlefile)
	})
	if err != nil {
		return err
	}
	report.BundleDigest = d
	report.BundleURL = url
	log.Info("bundle uploaded", "url", url, "digest", d.String())
	return nil
}

// PrintSummary renders one row per model, skipped models included.
func PrintSummary(w io.Writer, report *types.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Model", "Status", "Exit Code", "Duration"})
	i := 1
	for _, result := range report.Results {
		t.AppendRow(table.Row{i, result.Name, result.Status, result.ExitCode, result.Duration.Round(time.Millisecond)})
		i++
	}
	for _, name := range report.Skipped {
		t.AppendRow(table.Row{i, name, types.StatusSkipped, "", ""})
		i++
	}
	t.AppendFooter(table.Row{"", report.ID, report.Status, "", report.Duration().Round(time.Millisecond)})
	t.Render()
}
