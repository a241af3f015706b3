package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"duestrack/internal/domain"

	"github.com/xuri/excelize/v2"
)

// RawRow is one spreadsheet row keyed by canonical snake_case field names.
type RawRow map[string]any

// IngestContext scopes a bulk upload: the uploader's department backfills
// rows without one, and flows restricted to a single person type (the
// HR faculty upload) set DefaultPersonType.
type IngestContext struct {
	DefaultDepartment string
	DefaultPersonType domain.PersonType
}

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Row rejection reason tags.
const (
	ReasonInvalidDate       = "invalid-date"
	ReasonMissingPersonType = "missing-person-type"
	ReasonInvalidAmount     = "invalid-amount"
	ReasonInvalidCategory   = "invalid-category"
	ReasonInvalidDueType    = "invalid-due-type"
	ReasonMissingPersonID   = "missing-person-id"
	ReasonMissingPersonName = "missing-person-name"
	ReasonMissingDesc       = "missing-description"
	ReasonPersistFailed     = "persist-failed"
)

type IngestResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

type IngestService struct {
	store       DueStore
	notifier    Notifier
	invalidator StatsInvalidator
	now         func() time.Time
}

func NewIngestService(store DueStore, notifier Notifier, invalidator StatsInvalidator) *IngestService {
	return &IngestService{
		store:       store,
		notifier:    notifier,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// Spreadsheet serial day 0 is 1899-12-30, the convention shared by every
// common spreadsheet tool.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	time.RFC3339,
}

// coerceDueDate turns a cell value into a UTC-midnight calendar date.
// Numbers (and numeric strings, which is how raw xlsx cells arrive) are
// serial day counts; strings are parsed as calendar dates with any
// time-of-day discarded.
func coerceDueDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return serialToDate(t)
	case int:
		return serialToDate(float64(t))
	case int64:
		return serialToDate(float64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil {
			return serialToDate(serial)
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return atMidnightUTC(parsed), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// SerialDate converts a spreadsheet serial day count to a UTC-midnight
// calendar date.
func SerialDate(serial float64) (time.Time, bool) {
	return serialToDate(serial)
}

func serialToDate(serial float64) (time.Time, bool) {
	days := math.Floor(serial)
	// plausible serial range: 1900 through roughly year 2700
	if days <= 0 || days > 300000 {
		return time.Time{}, false
	}
	return serialEpoch.AddDate(0, 0, int(days)), true
}

func coerceAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true // amount defaults to zero
	case float64:
		if math.IsNaN(t) || t < 0 {
			return 0, false
		}
		return t, true
	case int:
		if t < 0 {
			return 0, false
		}
		return float64(t), true
	case int64:
		if t < 0 {
			return 0, false
		}
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || f < 0 {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func rowString(row RawRow, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Normalize validates raw rows one by one and produces creation requests
// for the good ones. A bad row never aborts the batch; it lands in the
// error list with its index and a reason tag.
func Normalize(rows []RawRow, ic IngestContext) ([]CreateDueRequest, []RowError) {
	var valid []CreateDueRequest
	var rowErrors []RowError

	reject := func(i int, reason string) {
		rowErrors = append(rowErrors, RowError{Row: i, Reason: reason})
	}

	for i, row := range rows {
		dueDate, ok := coerceDueDate(row["due_date"])
		if !ok {
			reject(i, ReasonInvalidDate)
			continue
		}

		personType := domain.PersonType(rowString(row, "person_type"))
		if !personType.Valid() {
			personType = ic.DefaultPersonType
		}
		if !personType.Valid() {
			reject(i, ReasonMissingPersonType)
			continue
		}

		department := rowString(row, "department")
		if department == "" {
			department = ic.DefaultDepartment
		}

		amount, ok := coerceAmount(row["amount"])
		if !ok {
			reject(i, ReasonInvalidAmount)
			continue
		}

		category := domain.Category(rowString(row, "category"))
		if category == "" {
			category = domain.CategoryPayable
		}
		if !category.Valid() {
			reject(i, ReasonInvalidCategory)
			continue
		}

		dueType := domain.DueType(rowString(row, "due_type"))
		if !domain.ValidDueType(personType, dueType) {
			reject(i, ReasonInvalidDueType)
			continue
		}

		personID := rowString(row, "person_id")
		if personID == "" {
			reject(i, ReasonMissingPersonID)
			continue
		}
		personName := rowString(row, "person_name")
		if personName == "" {
			reject(i, ReasonMissingPersonName)
			continue
		}
		description := rowString(row, "description")
		if description == "" {
			reject(i, ReasonMissingDesc)
			continue
		}

		valid = append(valid, CreateDueRequest{
			PersonID:    personID,
			PersonName:  personName,
			PersonType:  personType,
			Department:  department,
			Description: description,
			Amount:      amount,
			DueDate:     dueDate,
			Category:    category,
			DueType:     dueType,
			Link:        rowString(row, "link"),
		})
	}

	return valid, rowErrors
}

// Ingest normalizes and persists a batch for the uploading operator. Rows
// are inserted independently; the batch is deliberately non-transactional
// so one bad row cannot sink the rest.
func (s *IngestService) Ingest(ctx context.Context, p domain.Principal, rows []RawRow, ic IngestContext) (*IngestResult, error) {
	if d := CanPerform(p, ActionCreateDue, nil); !d.Allowed {
		return nil, &domain.AuthorizationError{Reason: d.Reason}
	}

	if ic.DefaultDepartment == "" {
		ic.DefaultDepartment = p.Department
	}

	requests, rowErrors := Normalize(rows, ic)

	dateAdded := atMidnightUTC(s.now())
	departments := map[string]bool{}
	imported := 0

	for _, req := range requests {
		due := &domain.Due{
			ID:            newDueID(),
			PersonID:      req.PersonID,
			PersonName:    req.PersonName,
			PersonType:    req.PersonType,
			Department:    req.Department,
			Description:   req.Description,
			Amount:        req.Amount,
			DueDate:       atMidnightUTC(req.DueDate),
			Category:      req.Category,
			DueType:       req.DueType,
			Link:          req.Link,
			Status:        domain.StatusPending,
			PaymentStatus: domain.PaymentDue,
			DateAdded:     dateAdded,
		}

		if err := s.store.Insert(ctx, due); err != nil {
			log.Printf("[INGEST] insert failed for %s: %v", due.PersonID, err)
			rowErrors = append(rowErrors, RowError{Row: -1, Reason: ReasonPersistFailed})
			continue
		}

		imported++
		departments[due.Department] = true
	}

	result := &IngestResult{
		Imported: imported,
		Skipped:  len(rows) - imported,
		Errors:   rowErrors,
	}

	for dept := range departments {
		if s.invalidator != nil {
			s.invalidator.InvalidateStats(ctx, dept)
		}
		if s.notifier != nil {
			if err := s.notifier.NotifyBulkImported(ctx, dept, result.Imported, result.Skipped); err != nil {
				log.Printf("[INGEST] bulk notify error: %v", err)
			}
		}
	}

	return result, nil
}

// workbook header aliases → canonical row keys
var headerAliases = map[string]string{
	"personid":    "person_id",
	"person_id":   "person_id",
	"rollnumber":  "person_id",
	"roll_number": "person_id",
	"facultyid":   "person_id",
	"faculty_id":  "person_id",
	"personname":  "person_name",
	"person_name": "person_name",
	"name":        "person_name",
	"persontype":  "person_type",
	"person_type": "person_type",
	"department":  "department",
	"description": "description",
	"amount":      "amount",
	"duedate":     "due_date",
	"due_date":    "due_date",
	"category":    "category",
	"duetype":     "due_type",
	"due_type":    "due_type",
	"link":        "link",
}

// ParseWorkbook decodes the first sheet of an uploaded xlsx into raw rows.
// Cells are read raw, so serial-formatted dates stay numeric strings for
// the normalizer to decode.
func ParseWorkbook(r io.Reader) ([]RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.ValidationError{Field: "file", Message: "not a readable xlsx workbook"}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &domain.ValidationError{Field: "file", Message: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, &domain.ValidationError{Field: "file", Message: "workbook has no data rows"}
	}

	var keys []string
	for _, header := range rows[0] {
		h := strings.ToLower(strings.TrimSpace(header))
		h = strings.ReplaceAll(h, " ", "_")
		if canonical, ok := headerAliases[h]; ok {
			keys = append(keys, canonical)
		} else {
			keys = append(keys, h)
		}
	}

	var out []RawRow
	for _, cells := range rows[1:] {
		row := RawRow{}
		empty := true
		for i, cell := range cells {
			if i >= len(keys) {
				break
			}
			if strings.TrimSpace(cell) != "" {
				empty = false
			}
			row[keys[i]] = cell
		}
		if empty {
			continue
		}
		out = append(out, row)
	}

	return out, nil
}

var templateHeaders = []string{
	"person_id", "person_name", "person_type", "department",
	"description", "amount", "due_date", "category", "due_type", "link",
}

// SampleTemplate builds the downloadable xlsx the bulk upload expects, with
// one example row and the allowed reason codes on a second sheet.
func SampleTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Dues"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, header := range templateHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	example := []any{
		"21CS001", "A. Student", "Student", "LIBRARY",
		"Overdue book fine", 150, "2025-06-30", "payable", "library-fine", "",
	}
	for i, v := range example {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return nil, err
		}
	}

	typesSheet := "DueTypes"
	if _, err := f.NewSheet(typesSheet); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(typesSheet, "A1", "Student"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(typesSheet, "B1", "Faculty"); err != nil {
		return nil, err
	}
	for i, dt := range domain.DueTypesFor(domain.PersonStudent) {
		if err := f.SetCellValue(typesSheet, fmt.Sprintf("A%d", i+2), string(dt)); err != nil {
			return nil, err
		}
	}
	for i, dt := range domain.DueTypesFor(domain.PersonFaculty) {
		if err := f.SetCellValue(typesSheet, fmt.Sprintf("B%d", i+2), string(dt)); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
