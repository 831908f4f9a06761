package apitest

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
)

// reportBody builds a fake report file large enough to pass the client's
// size check.
func reportBody(format models.ReportFormat, title string) []byte {
	var buf bytes.Buffer
	if format == models.FormatPDF {
		buf.WriteString("%PDF-1.4\n")
	} else {
		buf.WriteString("PK\x03\x04")
	}
	buf.WriteString(title)
	buf.Write(bytes.Repeat([]byte{' '}, 256))
	return buf.Bytes()
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ReportMetadata
	for _, m := range s.reports {
		if f := q.Get("format"); f != "" && string(m.FormatType) != f {
			continue
		}
		if t := q.Get("type"); t != "" && string(m.ReportType) != t {
			continue
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b models.ReportMetadata) int { return int(b.ID - a.ID) })
	writePage(w, out, q)
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := models.ReportFormat(q.Get("format"))
	typ := models.ReportType(q.Get("type"))
	if !format.Valid() || !typ.Valid() {
		writeError(w, http.StatusBadRequest, "Paramètres de rapport invalides")
		return
	}

	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()

	name := fmt.Sprintf("rapport_%s_%s.%s", typ.Normalize(), now.Format("20060102"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape("é_"+name))
	_, _ = w.Write(reportBody(format, name))
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	var in models.ReportRecord
	if !decode(w, r, &in) {
		return
	}
	if in.ReportType == models.ReportAnnual {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"report_type": {`"annual" n'est pas un choix valide.`}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m := models.ReportMetadata{
		ID:               s.nextID,
		Filename:         in.Filename,
		FormatType:       in.FormatType,
		ReportType:       in.ReportType,
		DateFrom:         in.DateFrom,
		DateTo:           in.DateTo,
		GeneratedAt:      s.now().UTC(),
		TransactionCount: in.TransactionCount,
		TotalRecettes:    in.TotalRecettes,
		TotalDepenses:    in.TotalDepenses,
		Balance:          in.Balance,
		FileExists:       true,
		DownloadURL:      fmt.Sprintf("/api/transactions/reports/%d/download/", s.nextID),
	}
	if m.Filename == "" {
		m.Filename = fmt.Sprintf("report_%d.%s", m.ID, m.FormatType)
	}
	if a := s.accounts[userFrom(r.Context())]; a != nil {
		id, name, email := a.user.ID, a.user.Name, a.user.Email
		m.GeneratedBy = models.ReportUser{ID: &id, Name: &name, Email: &email}
	}
	s.reports[m.ID] = m
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	m, found := s.reports[id]
	if found {
		m.DownloadCount++
		s.reports[id] = m
	}
	s.mu.Unlock()

	if !ok || !found {
		writeError(w, http.StatusNotFound, "Rapport introuvable")
		return
	}
	if !m.FileExists {
		writeError(w, http.StatusGone, "Le fichier du rapport n'existe plus")
		return
	}

	w.Header().Set("Content-Type", m.FormatType.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, m.Filename))
	_, _ = w.Write(reportBody(m.FormatType, m.Filename))
}

// AddTransaction stores tx directly, bypassing the API. Zero IDs are
// assigned.
func (s *Server) AddTransaction(tx models.Transaction) models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == 0 {
		s.nextID++
		tx.ID = s.nextID
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now().UTC()
	}
	s.transactions[tx.ID] = tx
	return tx
}

// AddReport stores report metadata directly, bypassing the API.
func (s *Server) AddReport(m models.ReportMetadata) models.ReportMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		s.nextID++
		m.ID = s.nextID
	}
	s.reports[m.ID] = m
	return m
}

// UserPassword returns the current password of the account with id.
func (s *Server) UserPassword(id models.ID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		return a.password
	}
	return ""
}
