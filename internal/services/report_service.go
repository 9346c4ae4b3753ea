package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"field-agent/internal/models"
	"field-agent/internal/timeutil"
)

// StatementData holds everything printed on a collection statement
type StatementData struct {
	Session     models.Session
	Collections []models.CollectionEntry
	// ByMethod sums amounts per payment method; unparseable amounts are skipped
	ByMethod map[string]decimal.Decimal
	Total    decimal.Decimal
	Skipped  int
}

// ReportService renders the reconciled collection list as a PDF statement
type ReportService struct {
	Collections *CollectionService
	Session     *SessionService
}

func NewReportService(collections *CollectionService, session *SessionService) *ReportService {
	return &ReportService{Collections: collections, Session: session}
}

// BuildStatement totals entries per payment method
func BuildStatement(session models.Session, entries []models.CollectionEntry) *StatementData {
	data := &StatementData{
		Session:     session,
		Collections: entries,
		ByMethod:    make(map[string]decimal.Decimal),
		Total:       decimal.Zero,
	}
	for _, e := range entries {
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			data.Skipped++
			continue
		}
		data.ByMethod[e.PaymentMethod] = data.ByMethod[e.PaymentMethod].Add(amount)
		data.Total = data.Total.Add(amount)
	}
	return data
}

// GenerateStatementPDF loads the user's collections and renders them
func (s *ReportService) GenerateStatementPDF(ctx context.Context) ([]byte, error) {
	session, err := s.Session.Current()
	if err != nil {
		return nil, err
	}
	list, err := s.Collections.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	return RenderStatementPDF(BuildStatement(session, list.Collections))
}

// RenderStatementPDF draws the statement table and method totals
func RenderStatementPDF(data *StatementData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Collection Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("%s (%s)", data.Session.Name, data.Session.UserID), "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.FormatIST(timeutil.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Table header
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(28, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Customer", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Place", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Branch", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Method", "1", 0, "C", true, 0, "")
	pdf.CellFormat(32, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, e := range data.Collections {
		date := e.CreatedAt
		if at, ok := timeutil.ParseTimestamp(e.CreatedAt); ok {
			date = timeutil.FormatIST(at, "02-Jan-2006")
		}
		pdf.CellFormat(28, 6, date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, truncate(e.CustomerName, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, truncate(e.CustomerPlace, 16), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, truncate(e.BranchName, 18), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, e.PaymentMethod, "1", 0, "C", false, 0, "")
		pdf.CellFormat(32, 6, "Rs. "+e.Amount, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(5)

	// Totals
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, "Totals by payment method", "1", 1, "L", true, 0, "")

	methods := make([]string, 0, len(data.ByMethod))
	for m := range data.ByMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	pdf.SetFont("Arial", "", 11)
	for _, m := range methods {
		pdf.CellFormat(95, 7, m, "1", 0, "L", false, 0, "")
		pdf.CellFormat(95, 7, "Rs. "+data.ByMethod[m].StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(200, 255, 200)
	pdf.CellFormat(95, 8, fmt.Sprintf("Total (%d collections)", len(data.Collections)), "1", 0, "L", true, 0, "")
	pdf.CellFormat(95, 8, "Rs. "+data.Total.StringFixed(2), "1", 1, "R", true, 0, "")

	if data.Skipped > 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(190, 6, fmt.Sprintf("%d entries with an unreadable amount are not totalled", data.Skipped), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
