package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jeanpaul/alacrity/internal/bench"
)

var xlsxHeader = []any{
	"ID", "Model", "Quant", "Params", "Preset",
	"Prompt t/s", "Gen t/s", "TTFB ms", "Reps",
	"Engine", "OS", "Arch", "CPUs", "Ran at",
}

// WriteXLSX saves results as a spreadsheet at path.
func WriteXLSX(path string, results []bench.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return err
	}
	for i, r := range results {
		row := []any{
			r.ID,
			r.Model,
			r.Quant,
			r.Params,
			r.Preset,
			r.PromptTPS,
			r.GenTPS,
			r.TTFBMS,
			r.Repetitions,
			r.Engine,
			r.Device.OS,
			r.Device.Arch,
			r.Device.CPUs,
			r.RanAt.Format("2006-01-02 15:04:05"),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "E", 22); err != nil {
		return err
	}
	return f.SaveAs(path)
}
