package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/client/client"
	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/filex"
	"github.com/dmitrijs2005/cashtrack/internal/netx"
)

// minReportSize is the smallest body accepted as a real report file.
const minReportSize = 100

var ErrNotAReport = errors.New("response is not a report file")

// ReportService manages generated reports.
//
// Contract:
//   - List: report metadata, optionally filtered by format and type.
//   - Generate: build a report server-side and save it into the download
//     directory. Returns the path written.
//   - DownloadByID: fetch a previously generated report into the download
//     directory. Returns the path written.
//   - SaveMetadata: register a generated report.
//
// Downloads never overwrite existing files.
type ReportService interface {
	List(ctx context.Context, format models.ReportFormat, typ models.ReportType) ([]models.ReportMetadata, error)
	Generate(ctx context.Context, format models.ReportFormat, typ models.ReportType, p models.Period) (string, error)
	DownloadByID(ctx context.Context, id models.ID) (string, error)
	SaveMetadata(ctx context.Context, rec models.ReportRecord) (*models.ReportMetadata, error)
}

type reportService struct {
	api API
	dir string
	now func() time.Time
}

// NewReportService returns a ReportService saving files under dir. A nil
// now uses time.Now.
func NewReportService(api API, dir string, now func() time.Time) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{api: api, dir: dir, now: now}
}

func (s *reportService) List(ctx context.Context, format models.ReportFormat, typ models.ReportType) ([]models.ReportMetadata, error) {
	q := url.Values{}
	if format != "" {
		q.Set("format", string(format))
	}
	if typ != "" {
		q.Set("type", string(typ))
	}
	var page models.Page[models.ReportMetadata]
	if err := s.api.Get(ctx, "/transactions/reports/", q, &page); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return page.Results, nil
}

func (s *reportService) Generate(ctx context.Context, format models.ReportFormat, typ models.ReportType, p models.Period) (string, error) {
	if !format.Valid() {
		return "", invalid("unknown report format %q", format)
	}
	if !typ.Valid() {
		return "", invalid("unknown report type %q", typ)
	}

	q := p.Values()
	q.Set("format", string(format))
	q.Set("type", string(typ))
	resp, err := s.api.Do(ctx, &client.Request{
		Method: http.MethodGet,
		Path:   "/transactions/reports/generate/",
		Query:  q,
		Accept: format.ContentType(),
	})
	if err != nil {
		return "", fmt.Errorf("generate report: %w", err)
	}

	fallback := models.DefaultReportFilename(typ.Normalize(), format, s.now())
	path, err := s.save(resp, fallback)
	if err != nil {
		return "", fmt.Errorf("generate report: %w", err)
	}
	return path, nil
}

func (s *reportService) DownloadByID(ctx context.Context, id models.ID) (string, error) {
	resp, err := s.api.Do(ctx, &client.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/transactions/reports/%d/download/", id),
	})
	if err != nil {
		return "", fmt.Errorf("download report %d: %w", id, err)
	}

	path, err := s.save(resp, fmt.Sprintf("report_%d.pdf", id))
	if err != nil {
		return "", fmt.Errorf("download report %d: %w", id, err)
	}
	return path, nil
}

func (s *reportService) save(resp *client.Response, fallback string) (string, error) {
	ct := resp.Header.Get("Content-Type")
	if !netx.IsFileContentType(ct) {
		return "", fmt.Errorf("%w: content type %q", ErrNotAReport, ct)
	}
	if len(resp.Body) < minReportSize {
		return "", fmt.Errorf("%w: %d bytes", ErrNotAReport, len(resp.Body))
	}

	name := fallback
	if n, ok := netx.FilenameFromDisposition(resp.Header.Get("Content-Disposition")); ok {
		if safe := filex.SafeName(n); safe != "" {
			name = safe
		}
	}

	dir, err := filex.EnsureDir(s.dir)
	if err != nil {
		return "", err
	}
	return filex.WriteUnique(dir, name, resp.Body)
}

func (s *reportService) SaveMetadata(ctx context.Context, rec models.ReportRecord) (*models.ReportMetadata, error) {
	if !rec.ReportType.Valid() {
		return nil, invalid("unknown report type %q", rec.ReportType)
	}
	rec.ReportType = rec.ReportType.Normalize()

	var m models.ReportMetadata
	if err := s.api.Post(ctx, "/transactions/reports/create/", rec, &m); err != nil {
		return nil, fmt.Errorf("save report metadata: %w", err)
	}
	return &m, nil
}
