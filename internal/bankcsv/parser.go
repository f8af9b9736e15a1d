// Package bankcsv parses bank statement CSV exports into transaction
// candidates. The exports are semi-structured: a few metadata lines, then a
// header row whose delimiter varies between comma, semicolon and pipe, then
// data rows mixed with running-balance noise.
package bankcsv

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"icomag/internal/models"
)

var (
	// ErrUnrecognizedFormat means no header row was found: wrong file, not
	// an empty statement.
	ErrUnrecognizedFormat = errors.New("unrecognized statement format: no header row found")
	// ErrNoTransactions means the file had the right shape but no row
	// qualified as a transaction.
	ErrNoTransactions = errors.New("no transactions found in statement")
)

// Candidate is one parsed statement row, not yet persisted.
type Candidate struct {
	Date        time.Time
	Amount      float64
	Type        models.MoneyDirection
	Description string
	Reference   *string
	Serial      *string
}

// Statement is the result of parsing one export file.
type Statement struct {
	AccountNumber string
	Candidates    []Candidate
}

const (
	dateLayout     = "02/01/2006"
	accountLabel   = "CUENTA:"
	headerToken    = "FECHA"
	metadataWindow = 10 // lines scanned for account metadata
)

// Column name variants seen across export versions.
var (
	dateColumns        = []string{"FECHA"}
	amountColumns      = []string{"MONTO", "IMPORTE"}
	descriptionColumns = []string{"DESCRIPCION", "CONCEPTO"}
	referenceColumns   = []string{"REFERENCIA"}
	serialColumns      = []string{"SERIAL"}
)

// Debit markers in the short description; a retained row without any of
// these classifies as credit (money in).
var debitMarkers = []string{
	"NOTA DE DEBITO",
	"DEBITO",
	"IMPUESTO I.G.T.F",
}

// Credit markers only gate the noise filter: a row carrying neither a debit
// nor a credit marker is not a transaction (repeated headers, running
// balance lines).
var creditMarkers = []string{
	"NOTA DE CREDITO",
	"CREDITO",
	"ABONO",
	"DEPOSITO",
	"TRANSFERENCIA",
}

// Parse reads a whole statement export and returns the account metadata plus
// one candidate per qualifying data row.
func Parse(r io.Reader) (*Statement, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}

	lines := splitLines(string(raw))

	st := &Statement{
		AccountNumber: scanAccountNumber(lines),
	}

	headerIdx, delim := findHeader(lines)
	if headerIdx < 0 {
		return nil, ErrUnrecognizedFormat
	}

	columns := splitFields(lines[headerIdx], delim)
	for i := range columns {
		columns[i] = normalizeColumn(columns[i])
	}

	dateIdx := columnIndex(columns, dateColumns)
	amountIdx := columnIndex(columns, amountColumns)
	descIdx := columnIndex(columns, descriptionColumns)
	refIdx := columnIndex(columns, referenceColumns)
	serialIdx := columnIndex(columns, serialColumns)

	if dateIdx < 0 || amountIdx < 0 || descIdx < 0 {
		return nil, ErrUnrecognizedFormat
	}

	for _, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitFields(line, delim)

		date, ok := parseDate(fieldAt(fields, dateIdx))
		if !ok {
			continue // noise row: repeated header, balance line, malformed date
		}
		amount, ok := parseAmount(fieldAt(fields, amountIdx))
		if !ok {
			continue
		}
		description := strings.TrimSpace(fieldAt(fields, descIdx))
		if !hasTransactionMarker(description) {
			continue
		}

		st.Candidates = append(st.Candidates, Candidate{
			Date:        date,
			Amount:      amount,
			Type:        classify(description),
			Description: description,
			Reference:   optionalField(fields, refIdx),
			Serial:      optionalField(fields, serialIdx),
		})
	}

	if len(st.Candidates) == 0 {
		return nil, ErrNoTransactions
	}
	return st, nil
}

// classify returns the direction for a retained row: any debit marker in the
// description means money out, otherwise the row is a credit.
func classify(description string) models.MoneyDirection {
	upper := strings.ToUpper(description)
	for _, marker := range debitMarkers {
		if strings.Contains(upper, marker) {
			return models.MoneyOut
		}
	}
	return models.MoneyIn
}

func hasTransactionMarker(description string) bool {
	upper := strings.ToUpper(description)
	for _, marker := range debitMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	for _, marker := range creditMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// scanAccountNumber looks for the "Cuenta:" label in the metadata lines at
// the top of the file. Best-effort: absence is not an error.
func scanAccountNumber(lines []string) string {
	limit := metadataWindow
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		upper := strings.ToUpper(line)
		idx := strings.Index(upper, accountLabel)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(accountLabel):]
		// the value may share the line with other delimited metadata
		parts := strings.FieldsFunc(rest, func(r rune) bool {
			return r == ',' || r == ';' || r == '|'
		})
		if len(parts) == 0 {
			continue
		}
		return strings.Trim(strings.TrimSpace(parts[0]), `"`)
	}
	return ""
}

// findHeader locates the header row by the date-column token and infers the
// delimiter from that line. Semicolon and pipe win over comma since exports
// use either and free text may contain commas.
func findHeader(lines []string) (int, rune) {
	for i, line := range lines {
		upper := strings.ToUpper(line)
		if !strings.Contains(upper, headerToken) {
			continue
		}
		delim := inferDelimiter(line)
		for _, col := range splitFields(line, delim) {
			if normalizeColumn(col) == headerToken {
				return i, delim
			}
		}
	}
	return -1, 0
}

func inferDelimiter(line string) rune {
	switch {
	case strings.ContainsRune(line, ';'):
		return ';'
	case strings.ContainsRune(line, '|'):
		return '|'
	default:
		return ','
	}
}

// splitFields splits a line on delim, honoring double-quoted fields: a
// quoted field may contain the delimiter and doubled quotes escape a quote.
func splitFields(line string, delim rune) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if quoted && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			quoted = !quoted
		case r == delim && !quoted:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func normalizeColumn(col string) string {
	return strings.ToUpper(strings.Trim(strings.TrimSpace(col), `"`))
}

func columnIndex(columns []string, names []string) int {
	for _, name := range names {
		for i, col := range columns {
			if col == name {
				return i
			}
		}
	}
	return -1
}

func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

func optionalField(fields []string, idx int) *string {
	v := strings.TrimSpace(fieldAt(fields, idx))
	if v == "" {
		return nil
	}
	return &v
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseAmount strips thousands separators and parses the remainder.
// Statement amounts are unsigned; direction comes from the description.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if f < 0 {
		f = -f
	}
	return f, true
}
