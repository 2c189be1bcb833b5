package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bookrecon/internal/composite"
	"bookrecon/internal/config"
	"bookrecon/internal/dataset"
	"bookrecon/internal/export"
	"bookrecon/internal/logger"
	"bookrecon/internal/reconciliation"
	"bookrecon/internal/sheets"
	"bookrecon/pkg/models"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile payments with orders and invoices",
	Long: `Reconcile payment provider and bank payments with shop orders and invoices.

Input is read either from a directory of JSON files or from a Google Sheet:

  payments.json     normalized payments
  gateway.json      raw PayPal activity export rows
  bank.json         raw bank statement rows
  orders.json       shop orders
  fulfillment.json  invoice numbers per order
  invoices.json     parsed invoices (see "bookrecon invoices")

With --sheets the PayPal, Bank, Bestellungen and Rechnungen sheets of
GOOGLE_SHEET_URL are read instead; parsed invoices are added with --invoices.

Optional environment variables:
  ORDER_PREFIX        - Known order number prefix, e.g. 31234
  BLOCKLIST           - Comma separated payers or memo fragments to skip
  GATEWAY_WINDOW_DAYS - Days between order and payment (default: 14)
  INVOICE_WINDOW_DAYS - Days between invoice and payment (default: 60)
  WINDOW_DIRECTION    - after or before (default: after)`,
	Example: `  # Reconcile a folder of exports and write JSON
  bookrecon reconcile --input ./daten -o abgleich.json

  # Also write an XLSX workbook
  bookrecon reconcile --input ./daten --xlsx abgleich.xlsx

  # Read from Google Sheets and append the results to the "Abgleich" sheet
  bookrecon reconcile --sheets --invoices invoices.json --write-sheet Abgleich`,
	RunE: runReconcile,
}

// ReconcileOutput is the JSON document written by the reconcile command
type ReconcileOutput struct {
	RunID    string                    `json:"run_id"`
	Summary  map[models.Confidence]int `json:"summary"`
	Payments []models.Payment          `json:"payments"`
	Blocked  []models.Payment          `json:"blocked"`
	Errors   []RecordErrorOutput       `json:"errors"`
	Records  []composite.Record        `json:"records"`
}

// RecordErrorOutput is a routed payment in JSON output
type RecordErrorOutput struct {
	PaymentID string         `json:"payment_id"`
	Op        string         `json:"op"`
	Message   string         `json:"message"`
	Payment   models.Payment `json:"payment"`
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	addInputFlags(reconcileCmd)
	reconcileCmd.Flags().StringP("output", "o", "", "Write the result as JSON to this file")
	reconcileCmd.Flags().String("xlsx", "", "Write the result as XLSX workbook to this file")
	reconcileCmd.Flags().String("write-sheet", "", "Append reconciled payments to this sheet of GOOGLE_SHEET_URL")
	reconcileCmd.Flags().Int("timeout", 300, "Timeout in seconds for Google Sheets access")
}

// addInputFlags registers the flags selecting the input of a run
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "Directory with JSON input files")
	cmd.Flags().Bool("sheets", false, "Read input from GOOGLE_SHEET_URL")
	cmd.Flags().String("invoices", "", "JSON file with parsed invoices (added to the input)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reconcile")

	conf, err := appConfig()
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	writeSheet, _ := cmd.Flags().GetString("write-sheet")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	if outputPath == "" && xlsxPath == "" && writeSheet == "" {
		log.Warn().Msg("No output selected, printing summary only")
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	in, err := loadInput(ctx, cmd, conf, log)
	if err != nil {
		return err
	}

	engine, err := reconciliation.NewEngine(conf.GetReconciliationConfig())
	if err != nil {
		return fmt.Errorf("failed to create reconciliation engine: %w", err)
	}

	res := engine.Reconcile(in)
	printSummary(res)

	if outputPath != "" {
		if err := dataset.WriteJSON(outputPath, newReconcileOutput(res)); err != nil {
			return err
		}
		fmt.Printf("JSON: %s\n", outputPath)
	}

	if xlsxPath != "" {
		if err := export.WriteWorkbook(xlsxPath, res); err != nil {
			return err
		}
		fmt.Printf("XLSX: %s\n", xlsxPath)
	}

	if writeSheet != "" {
		if conf.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required")
		}

		sheetsService, err := sheets.NewSheetsService(ctx, conf.GoogleSheetURL, conf.GetSheetsCredentials())
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		if err := sheetsService.WriteRecords(ctx, res.Tree.Export(), writeSheet); err != nil {
			return fmt.Errorf("failed to write to Google Sheet: %w", err)
		}
		fmt.Printf("Sheet: %s\n", writeSheet)
		fmt.Printf("URL: %s\n", conf.GoogleSheetURL)
	}

	log.Info().
		Str("run_id", res.RunID).
		Int("payments", len(res.Payments)).
		Int("blocked", len(res.Blocked)).
		Int("errors", len(res.Errors)).
		Msg("Reconciliation finished")

	return nil
}

// loadInput reads the records selected by the input flags
func loadInput(ctx context.Context, cmd *cobra.Command, conf *config.Config, log zerolog.Logger) (reconciliation.Input, error) {
	inputDir, _ := cmd.Flags().GetString("input")
	fromSheets, _ := cmd.Flags().GetBool("sheets")
	invoicesPath, _ := cmd.Flags().GetString("invoices")

	var in reconciliation.Input
	var err error

	switch {
	case fromSheets && inputDir != "":
		return in, fmt.Errorf("--input and --sheets are mutually exclusive")
	case fromSheets:
		if conf.GoogleSheetURL == "" {
			return in, fmt.Errorf("GOOGLE_SHEET_URL environment variable is required")
		}
		sheetsService, err := sheets.NewSheetsService(ctx, conf.GoogleSheetURL, conf.GetSheetsCredentials())
		if err != nil {
			return in, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		log.Info().Msg("Google Sheets service initialized successfully")

		in, err = dataset.NewSheetsReader(sheetsService).ReadInput(ctx, dataset.DefaultSheetNames())
		if err != nil {
			return in, fmt.Errorf("failed to read input sheets: %w", err)
		}
	case inputDir != "":
		in, err = dataset.LoadDir(inputDir)
		if err != nil {
			return in, err
		}
	default:
		return in, fmt.Errorf("either --input or --sheets is required")
	}

	if invoicesPath != "" {
		invoices, err := dataset.LoadInvoices(invoicesPath)
		if err != nil {
			return in, err
		}
		in.Invoices = append(in.Invoices, invoices...)
	}

	return in, nil
}

func newReconcileOutput(res *reconciliation.Result) ReconcileOutput {
	out := ReconcileOutput{
		RunID:    res.RunID,
		Summary:  res.Counts(),
		Payments: res.Payments,
		Blocked:  res.Blocked,
		Errors:   make([]RecordErrorOutput, 0, len(res.Errors)),
		Records:  res.Tree.Export(),
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, RecordErrorOutput{
			PaymentID: e.PaymentID,
			Op:        e.Op,
			Message:   e.Error(),
			Payment:   e.Payment,
		})
	}
	return out
}

func printSummary(res *reconciliation.Result) {
	counts := res.Counts()

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 ABGLEICH")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Lauf: %s\n", res.RunID)
	fmt.Printf("Zahlungen: %d\n", len(res.Payments))
	fmt.Printf("  sicher: %d\n", counts[models.Sicher])
	fmt.Printf("  fast sicher: %d\n", counts[models.FastSicher])
	fmt.Printf("  unsicher: %d\n", counts[models.Unsicher])
	if n := counts[models.Manuell]; n > 0 {
		fmt.Printf("  manuell: %d\n", n)
	}
	if len(res.Blocked) > 0 {
		fmt.Printf("Gesperrt: %d\n", len(res.Blocked))
	}
	if len(res.Errors) > 0 {
		fmt.Printf("Fehler: %d\n", len(res.Errors))
	}
	fmt.Printf("Stand: %s\n", time.Now().Format("02.01.2006 15:04"))
	fmt.Println()
}
