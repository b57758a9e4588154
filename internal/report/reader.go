// Package report reads the input spreadsheet and writes the results
// report. Column mapping, coercion and row validation live here so the
// pipeline only ever sees clean records.
package report

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/internal/model"
)

// Input column headers as they appear in the source spreadsheets.
const (
	regNumberHeader = "№ SOLICITUD"
	emailHeader     = "CORREO RUSO"
)

var regNumberRe = regexp.MustCompile(`^[A-Z]{3}-\d+/\d+$`)

// ValidateRecord checks an input row. Returns the reasons the row is
// unusable, or none for a valid row.
func ValidateRecord(rec model.Record) []string {
	var problems []string
	if !regNumberRe.MatchString(rec.RegNumber) {
		problems = append(problems, "registration number must match LLL-#####/##")
	}
	if rec.Email == "" || !strings.Contains(rec.Email, "@") {
		problems = append(problems, "email address is missing or malformed")
	}
	return problems
}

// ReadRecords loads and validates the input spreadsheet. Rows that fail
// validation are dropped with a warning and counted, never forwarded to
// the pipeline.
func ReadRecords(path string, sheetIndex int) ([]model.Record, int, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "report: open input file %s", path)
	}
	if sheetIndex >= len(f.Sheets) {
		return nil, 0, eris.Errorf("report: sheet index %d out of range (file has %d sheets)", sheetIndex, len(f.Sheets))
	}
	sheet := f.Sheets[sheetIndex]
	if len(sheet.Rows) == 0 {
		return nil, 0, eris.Errorf("report: sheet %q is empty", sheet.Name)
	}

	regCol, emailCol, err := mapColumns(sheet.Rows[0])
	if err != nil {
		return nil, 0, err
	}

	var (
		records []model.Record
		dropped int
	)
	for i, row := range sheet.Rows[1:] {
		rowNumber := i + 2 // 1-based, after the header row

		rec := model.Record{
			RegNumber: cellString(row, regCol),
			Email:     cellString(row, emailCol),
			RowIndex:  rowNumber,
		}

		if rec.RegNumber == "" && rec.Email == "" {
			continue // trailing blank rows
		}

		if problems := ValidateRecord(rec); len(problems) > 0 {
			zap.L().Warn("report: dropping invalid input row",
				zap.Int("row", rowNumber),
				zap.String("reg_number", rec.RegNumber),
				zap.Strings("problems", problems),
			)
			dropped++
			continue
		}

		records = append(records, rec)
	}

	zap.L().Info("report: input loaded",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("dropped", dropped),
	)
	return records, dropped, nil
}

// mapColumns locates the registration number and email columns by header
// text.
func mapColumns(header *xlsx.Row) (regCol, emailCol int, err error) {
	regCol, emailCol = -1, -1
	for i, cell := range header.Cells {
		switch strings.TrimSpace(cell.String()) {
		case regNumberHeader:
			regCol = i
		case emailHeader:
			emailCol = i
		}
	}
	if regCol < 0 {
		return 0, 0, eris.Errorf("report: missing registration number column %q", regNumberHeader)
	}
	if emailCol < 0 {
		return 0, 0, eris.Errorf("report: missing email column %q", emailHeader)
	}
	return regCol, emailCol, nil
}

func cellString(row *xlsx.Row, col int) string {
	if col >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[col].String())
}
