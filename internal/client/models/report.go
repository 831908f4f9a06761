package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ReportFormat string

const (
	FormatPDF  ReportFormat = "pdf"
	FormatXLSX ReportFormat = "xlsx"
)

func (f ReportFormat) Valid() bool {
	return f == FormatPDF || f == FormatXLSX
}

// ContentType is the media type the server answers with for f.
func (f ReportFormat) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportYearly  ReportType = "yearly"
	ReportCustom  ReportType = "custom"
	// ReportAnnual is accepted on input and stored as ReportYearly.
	ReportAnnual ReportType = "annual"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportDaily, ReportWeekly, ReportMonthly, ReportYearly, ReportCustom, ReportAnnual:
		return true
	}
	return false
}

// Normalize maps the "annual" alias onto "yearly".
func (t ReportType) Normalize() ReportType {
	if t == ReportAnnual {
		return ReportYearly
	}
	return t
}

// ReportUser is the compact user reference embedded in report metadata.
type ReportUser struct {
	ID    *ID     `json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type ReportMetadata struct {
	ID               ID              `json:"id"`
	Filename         string          `json:"filename"`
	FormatType       ReportFormat    `json:"format_type"`
	ReportType       ReportType      `json:"report_type"`
	DateFrom         string          `json:"date_from"`
	DateTo           string          `json:"date_to"`
	GeneratedBy      ReportUser      `json:"generated_by"`
	GeneratedAt      time.Time       `json:"generated_at"`
	TransactionCount int             `json:"transaction_count"`
	TotalRecettes    decimal.Decimal `json:"total_recettes"`
	TotalDepenses    decimal.Decimal `json:"total_depenses"`
	Balance          decimal.Decimal `json:"balance"`
	DownloadCount    int             `json:"download_count"`
	LastDownloadedAt *time.Time      `json:"last_downloaded_at"`
	LastDownloadedBy *ReportUser     `json:"last_downloaded_by"`
	FileExists       bool            `json:"file_exists"`
	DownloadURL      string          `json:"download_url"`
}

// ReportRecord is the payload used to register a generated report.
type ReportRecord struct {
	ReportType       ReportType      `json:"report_type"`
	DateFrom         string          `json:"date_from"`
	DateTo           string          `json:"date_to"`
	TransactionCount int             `json:"transaction_count"`
	TotalRecettes    decimal.Decimal `json:"total_recettes"`
	TotalDepenses    decimal.Decimal `json:"total_depenses"`
	Balance          decimal.Decimal `json:"balance"`
	FormatType       ReportFormat    `json:"format_type,omitempty"`
	Filename         string          `json:"filename,omitempty"`
}

// DefaultReportFilename is used when the server does not name the file.
func DefaultReportFilename(t ReportType, f ReportFormat, now time.Time) string {
	return fmt.Sprintf("rapport_%s_%s.%s", t, now.Format(time.DateOnly), f)
}
