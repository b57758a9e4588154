package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/latam-scholars/status-cli/internal/model"
)

func TestWriteResults_RoundTrip(t *testing.T) {
	queried := time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)
	results := []model.Result{
		{
			RegNumber:    "ECU-10520/25",
			Email:        "juan@example.com",
			NameCyrillic: "Петров Хуан",
			Country:      "Эквадор",
			Status:       "Зачислен",
			QueriedAt:    queried,
			Processed:    true,
		},
		{
			RegNumber: "MEX-333/25",
			Email:     "maria@example.com",
			QueriedAt: queried,
			Error:     "page fetch failed after 3 attempts",
		},
	}

	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	require.NoError(t, WriteResults(path, results))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)

	for i, col := range ExportColumns {
		assert.Equal(t, col, sheet.Rows[0].Cells[i].String())
	}

	first := sheet.Rows[1]
	assert.Equal(t, "ECU-10520/25", first.Cells[0].String())
	assert.Equal(t, "Петров Хуан", first.Cells[2].String())
	assert.Equal(t, "Эквадор", first.Cells[4].String())
	assert.Equal(t, "2026-08-23 14:30:00", first.Cells[10].String())
	assert.Empty(t, first.Cells[11].String())

	second := sheet.Rows[2]
	assert.Equal(t, "MEX-333/25", second.Cells[0].String())
	assert.Equal(t, "page fetch failed after 3 attempts", second.Cells[11].String())
}

func TestWriteResults_EmptyResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteResults(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1, "header only")
}
