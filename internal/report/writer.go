package report

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/internal/model"
)

// ExportColumns is the fixed report schema, in output order.
var ExportColumns = []string{
	"Número de Solicitud",
	"Email",
	"Nombre Completo (Cirílico)",
	"Nombre Completo (Latino)",
	"País",
	"Estado de Solicitud",
	"Mensaje de Estado",
	"Nivel de Educación",
	"Programa Educativo",
	"Facultad Preparatoria",
	"Fecha de Consulta",
	"Error",
}

// WriteResults writes one row per result to an XLSX report at path,
// creating parent directories as needed.
func WriteResults(path string, results []model.Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "report: create output dir %s", dir)
		}
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "report: add results sheet")
	}

	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true

	header := sheet.AddRow()
	for _, col := range ExportColumns {
		cell := header.AddCell()
		cell.SetString(col)
		cell.SetStyle(headerStyle)
	}

	for _, res := range results {
		row := sheet.AddRow()
		for _, value := range res.ExportRow() {
			row.AddCell().SetString(value)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}

	zap.L().Info("report: results written",
		zap.String("path", path),
		zap.Int("rows", len(results)),
	)
	return nil
}
