// Package model defines the data types exchanged between the loader, the
// fetch pipeline, and the report writer.
package model

import "time"

// Record is one input row from the tracking spreadsheet.
type Record struct {
	RegNumber string // registration token, e.g. ECU-10520/25
	Email     string
	RowIndex  int // 1-based row in the source spreadsheet
}

// Result holds everything extracted for one Record. A Result exists for
// every Record submitted to the pipeline, whether or not the fetch
// succeeded; missing data is represented by empty fields, never by a
// missing row.
type Result struct {
	RegNumber string
	Email     string
	RowIndex  int

	NameCyrillic       string
	NameLatin          string
	SystemRegNumber    string
	Country            string
	Status             string
	StatusMessage      string
	EducationLevel     string
	EducationProgram   string
	PreparatoryFaculty string

	QueriedAt time.Time
	Error     string
	Processed bool
}

// NewResult seeds a Result from its input Record.
func NewResult(rec Record) Result {
	return Result{
		RegNumber: rec.RegNumber,
		Email:     rec.Email,
		RowIndex:  rec.RowIndex,
		QueriedAt: time.Now(),
	}
}

// Succeeded reports whether the fetch completed with extracted data.
func (r Result) Succeeded() bool {
	return r.Processed && r.Error == ""
}

// ExportRow returns the report row in the fixed export column order.
func (r Result) ExportRow() []string {
	ts := ""
	if !r.QueriedAt.IsZero() {
		ts = r.QueriedAt.Format("2006-01-02 15:04:05")
	}
	return []string{
		r.RegNumber,
		r.Email,
		r.NameCyrillic,
		r.NameLatin,
		r.Country,
		r.Status,
		r.StatusMessage,
		r.EducationLevel,
		r.EducationProgram,
		r.PreparatoryFaculty,
		ts,
		r.Error,
	}
}
