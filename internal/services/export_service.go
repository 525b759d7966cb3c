package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/models"
	"github.com/trustportal/trust-api/internal/storage"
	"github.com/trustportal/trust-api/pkg/logger"
)

const archiveDir = "archives"

var entryColumns = []string{"Seq", "ID", "Created At", "Entity Type", "Entity ID", "Action", "Performed By", "Details", "Hash", "Prev Hash"}

type ExportService struct {
	ledger  *ledger.Ledger
	storage *storage.LocalStorage
	now     func() time.Time
}

func NewExportService(l *ledger.Ledger, storage *storage.LocalStorage) *ExportService {
	return &ExportService{ledger: l, storage: storage, now: time.Now}
}

func entryRow(e *models.AuditEntry) []string {
	prev := ""
	if e.PrevHash != nil {
		prev = *e.PrevHash
	}
	return []string{
		strconv.FormatInt(e.Seq, 10),
		e.ID,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
		e.EntityType,
		e.EntityID,
		e.Action,
		e.PerformedBy,
		string(e.Details),
		e.Hash,
		prev,
	}
}

func (s *ExportService) AuditCSV(ctx context.Context, entries []models.AuditEntry) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write(entryColumns)
	for i := range entries {
		_ = writer.Write(entryRow(&entries[i]))
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("audit_log_%s.csv", s.now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) AuditXLSX(ctx context.Context, entries []models.AuditEntry) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Audit Log"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for col, title := range entryColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(entryColumns), 1)
	_ = f.SetCellStyle(sheet, "A1", lastHeader, headerStyle)

	for i := range entries {
		for col, value := range entryRow(&entries[i]) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}
	_ = f.SetColWidth(sheet, "H", "J", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("audit_log_%s.xlsx", s.now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// IntegrityPDF renders a one-page certificate of the given verification result
func (s *ExportService) IntegrityPDF(ctx context.Context, status IntegrityStatus) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Audit Chain Integrity Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	row := func(label, value string) {
		pdf.Cell(60, 10, label)
		pdf.Cell(40, 10, value)
		pdf.Ln(6)
	}

	result := "VERIFIED"
	if !status.Verified {
		result = "BROKEN"
	}
	row("Result:", result)
	row("State:", status.State)
	row("Replay mode:", status.Mode)
	row("Digest:", status.Algorithm)
	row("Entries verified:", strconv.FormatInt(status.Checked, 10))
	row("Checked at:", status.CheckedAt.UTC().Format(time.RFC3339))
	if status.Head.Count > 0 {
		row("Head sequence:", strconv.FormatInt(status.Head.Seq, 10))
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 10, "Head hash")
		pdf.Ln(8)
		pdf.SetFont("Courier", "", 9)
		pdf.Cell(40, 10, status.Head.Hash)
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
	}

	if b := status.Break; b != nil {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 10, "First break")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		row("Position:", strconv.FormatInt(b.Position, 10))
		row("Sequence:", strconv.FormatInt(b.Seq, 10))
		row("Entry ID:", b.EntryID)
		row("Reason:", string(b.Reason))
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("audit_integrity_%s.pdf", s.now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// Archive streams the whole chain, oldest first, into an XLSX snapshot under
// storage/archives. The chain itself is never truncated.
func (s *ExportService) Archive(ctx context.Context) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Chain"
	_ = f.SetSheetName("Sheet1", sheet)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return "", err
	}

	header := make([]interface{}, len(entryColumns))
	for i, title := range entryColumns {
		header[i] = title
	}
	if err := sw.SetRow("A1", header); err != nil {
		return "", err
	}

	row := 2
	err = s.ledger.Walk(ctx, func(entry *models.AuditEntry) error {
		values := entryRow(entry)
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		row++
		return sw.SetRow(cell, cells)
	})
	if err != nil {
		return "", fmt.Errorf("archive walk: %w", err)
	}
	if err := sw.Flush(); err != nil {
		return "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("audit_chain_%s.xlsx", s.now().UTC().Format("20060102T150405Z"))
	path, err := s.storage.UploadFromBytes(buf.Bytes(), name, archiveDir)
	if err != nil {
		return "", err
	}

	logger.Info("Audit chain archived", "path", path, "entries", row-2)
	return path, nil
}

// Archives lists stored chain snapshots, oldest first
func (s *ExportService) Archives() ([]string, error) {
	paths, err := s.storage.List(archiveDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

// OpenArchive opens a snapshot returned by Archives. The caller closes it.
func (s *ExportService) OpenArchive(path string) (*os.File, error) {
	path = filepath.Clean(strings.TrimPrefix(path, "/"))
	if !strings.HasPrefix(path, archiveDir+string(filepath.Separator)) || !s.storage.Exists(path) {
		return nil, ErrNotFound
	}
	f, err := s.storage.Download(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return f, nil
}
