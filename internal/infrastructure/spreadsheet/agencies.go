package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

const (
	StaffLLMSheet    = "Staff LLMs & Coding"
	SpecializedSheet = "Specialized AI (Non-chat)"
)

// Column headers as they appear in the provisioning workbook.
const (
	colAgency           = "Agency/Department"
	colHasStaffLLM      = "Has staff LLM chatbot?"
	colHasCoding        = "Has AI coding assistant?"
	colScope            = "Scope"
	colSolutionType     = "Solution type"
	colNonPublicAllowed = "Non-public info allowed?"
	colOtherAI          = "Other AI (non‑chat) present?"
	colNotes            = "Notes/Comments"
	colSources          = "Sources"
	colTool             = "Tool / Capability"
	colPurpose          = "Purpose"
	colCustomCommercial = "Custom or Commercial"
)

// AgencyReader parses the federal agency provisioning workbook.
type AgencyReader struct{}

func NewAgencyReader() AgencyReader {
	return AgencyReader{}
}

// ReadAgencies returns staff LLM rows followed by specialized tool rows.
// Rows with no values are skipped; slugs are derived from agency names.
func (AgencyReader) ReadAgencies(r io.Reader) ([]domain.AgencyUsageRecord, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open agency workbook", err)
	}
	defer book.Close()

	staff, err := readSheet(book, StaffLLMSheet, staffRecord)
	if err != nil {
		return nil, err
	}
	specialized, err := readSheet(book, SpecializedSheet, specializedRecord)
	if err != nil {
		return nil, err
	}
	return append(staff, specialized...), nil
}

func readSheet(book *excelize.File, sheet string, build func(row sheetRow) domain.AgencyUsageRecord) ([]domain.AgencyUsageRecord, error) {
	if index, err := book.GetSheetIndex(sheet); err != nil || index < 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read agency workbook", fmt.Errorf("missing sheet %q", sheet))
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := headerIndex(rows[0])
	if _, ok := columns[normalizeHeader(colAgency)]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read agency workbook", fmt.Errorf("sheet %q has no %q column", sheet, colAgency))
	}

	records := make([]domain.AgencyUsageRecord, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := sheetRow{columns: columns, cells: cells}
		if row.empty() {
			continue
		}
		record := build(row)
		record.Slug = domain.AgencySlug(record.AgencyName)
		records = append(records, record)
	}
	return records, nil
}

func staffRecord(row sheetRow) domain.AgencyUsageRecord {
	notes := row.get(colNotes)
	return domain.AgencyUsageRecord{
		AgencyName:         row.get(colAgency),
		Category:           domain.CategoryStaffLLM,
		HasStaffLLM:        row.get(colHasStaffLLM),
		LLMName:            domain.ExtractLLMName(notes),
		HasCodingAssistant: row.get(colHasCoding),
		Scope:              row.get(colScope),
		SolutionType:       row.get(colSolutionType),
		NonPublicAllowed:   row.get(colNonPublicAllowed),
		OtherAIPresent:     row.get(colOtherAI),
		Notes:              notes,
		Sources:            row.get(colSources),
	}
}

func specializedRecord(row sheetRow) domain.AgencyUsageRecord {
	return domain.AgencyUsageRecord{
		AgencyName:       row.get(colAgency),
		Category:         domain.CategorySpecialized,
		ToolName:         row.get(colTool),
		ToolPurpose:      row.get(colPurpose),
		SolutionType:     row.get(colCustomCommercial),
		Scope:            row.get(colScope),
		NonPublicAllowed: row.get(colNonPublicAllowed),
		Sources:          row.get(colSources),
	}
}

type sheetRow struct {
	columns map[string]int
	cells   []string
}

func (r sheetRow) get(header string) string {
	idx, ok := r.columns[normalizeHeader(header)]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

func (r sheetRow) empty() bool {
	for _, cell := range r.cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeHeader(name)
		if key == "" {
			continue
		}
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return columns
}

// normalizeHeader folds case and the non-breaking hyphen some headers use.
func normalizeHeader(name string) string {
	name = strings.ReplaceAll(name, "‑", "-")
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
