// Package export writes reconciliation results to an XLSX workbook.
package export

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"bookrecon/internal/composite"
	"bookrecon/internal/logger"
	"bookrecon/internal/reconciliation"
	"bookrecon/internal/sheets"
	"bookrecon/pkg/models"
)

// Sheet names of the workbook
const (
	SheetPayments = "Zahlungen"
	SheetBlocked  = "Gesperrt"
	SheetErrors   = "Fehler"
	SheetRevenue  = "Umsatz"
)

var blockedHeaders = []interface{}{"Datum", "Kennung", "Art", "Name", "Betrag", "Verwendungszweck"}

var errorHeaders = []interface{}{"Kennung", "Vorgang", "Fehler"}

var revenueHeaders = []interface{}{"Jahr", "Monat", "Umsatz"}

// WriteWorkbook saves res to path. The workbook holds the reconciled payments,
// the blocked payments, the routed errors and the monthly revenue of every
// year a reconciled payment falls into.
func WriteWorkbook(path string, res *reconciliation.Result) error {
	const op = "WriteWorkbook"

	log := logger.WithComponent("export")

	f := excelize.NewFile()
	defer f.Close()

	for _, name := range []string{SheetPayments, SheetBlocked, SheetErrors, SheetRevenue} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("%s: failed to create sheet %s: %w", op, name, err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("%s: failed to remove default sheet: %w", op, err)
	}

	payments := sheets.Rows(res.Tree.Export(), time.Now())
	if err := writeSheet(f, SheetPayments, sheets.Headers, payments); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := writeSheet(f, SheetBlocked, blockedHeaders, blockedRows(res.Blocked)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := writeSheet(f, SheetErrors, errorHeaders, errorRows(res.Errors)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(res.Errors) > 0 {
		if err := highlightErrors(f, len(res.Errors)); err != nil {
			log.Warn().Err(err).Msg("Failed to style error rows, continuing anyway")
		}
	}

	revenue, err := revenueRows(res.Tree)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writeSheet(f, SheetRevenue, revenueHeaders, revenue); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%s: failed to save %s: %w", op, path, err)
	}

	log.Info().
		Str("file", path).
		Int("payments", len(payments)).
		Int("blocked", len(res.Blocked)).
		Int("errors", len(res.Errors)).
		Msg("Workbook written")

	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s headers: %w", sheet, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, bold)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func highlightErrors(f *excelize.File, count int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "9A0511"},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(errorHeaders), count+1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetErrors, "A2", last, style)
}

func blockedRows(payments []models.Payment) [][]interface{} {
	rows := make([][]interface{}, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []interface{}{
			p.Date, p.Identifier(), string(p.Kind), p.Name, p.Amount, p.Reference(),
		})
	}
	return rows
}

func errorRows(errs []*reconciliation.RecordError) [][]interface{} {
	rows := make([][]interface{}, 0, len(errs))
	for _, e := range errs {
		rows = append(rows, []interface{}{e.PaymentID, e.Op, e.Error()})
	}
	return rows
}

// revenueRows lists the monthly revenue of every year present in the tree.
func revenueRows(tree *composite.Tree) ([][]interface{}, error) {
	seen := make(map[string]bool)
	var years []string
	for _, n := range tree.Children() {
		if y := n.Year(); y != "" && !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Strings(years)

	var rows [][]interface{}
	for _, year := range years {
		report, err := tree.RevenueReport(year, 0)
		if err != nil {
			return nil, err
		}
		months, _ := composite.Months(0)
		for _, m := range months {
			rows = append(rows, []interface{}{year, m, report[m]})
		}
	}
	return rows, nil
}
