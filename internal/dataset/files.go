// Package dataset loads the records of a reconciliation run, either from a
// directory of JSON exports or from the sheets of a Google spreadsheet.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bookrecon/internal/logger"
	"bookrecon/internal/reconciliation"
	"bookrecon/pkg/models"
)

// File names inside an input directory. Every file is optional.
const (
	FilePayments    = "payments.json"    // []models.Payment, already normalized
	FileGateway     = "gateway.json"     // []GatewayRow
	FileBank        = "bank.json"        // []BankRow
	FileOrders      = "orders.json"      // []models.Order
	FileFulfillment = "fulfillment.json" // []models.FulfillmentRecord
	FileInvoices    = "invoices.json"    // []models.InvoiceDocument
)

// LoadDir reads every known file from dir. Raw gateway and bank exports are
// converted and appended after the normalized payments.
func LoadDir(dir string) (reconciliation.Input, error) {
	const op = "LoadDir"

	log := logger.WithComponent("dataset")
	var in reconciliation.Input

	if _, err := readJSON(filepath.Join(dir, FilePayments), &in.Payments); err != nil {
		return in, fmt.Errorf("%s: %w", op, err)
	}

	var gateway []GatewayRow
	if ok, err := readJSON(filepath.Join(dir, FileGateway), &gateway); err != nil {
		return in, fmt.Errorf("%s: %w", op, err)
	} else if ok {
		in.Payments = append(in.Payments, GatewayPayments(FileGateway, gateway)...)
	}

	var bank []BankRow
	if ok, err := readJSON(filepath.Join(dir, FileBank), &bank); err != nil {
		return in, fmt.Errorf("%s: %w", op, err)
	} else if ok {
		in.Payments = append(in.Payments, BankPayments(FileBank, bank)...)
	}

	if _, err := readJSON(filepath.Join(dir, FileOrders), &in.Orders); err != nil {
		return in, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := readJSON(filepath.Join(dir, FileFulfillment), &in.Fulfillment); err != nil {
		return in, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := readJSON(filepath.Join(dir, FileInvoices), &in.Invoices); err != nil {
		return in, fmt.Errorf("%s: %w", op, err)
	}

	log.Info().
		Str("dir", dir).
		Int("payments", len(in.Payments)).
		Int("orders", len(in.Orders)).
		Int("fulfillment", len(in.Fulfillment)).
		Int("invoices", len(in.Invoices)).
		Msg("Input directory loaded")

	return in, nil
}

// LoadInvoices reads parsed invoice documents from a JSON file.
func LoadInvoices(path string) ([]models.InvoiceDocument, error) {
	var invoices []models.InvoiceDocument
	ok, err := readJSON(path, &invoices)
	if err != nil {
		return nil, fmt.Errorf("LoadInvoices: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("LoadInvoices: %s: %w", path, fs.ErrNotExist)
	}
	return invoices, nil
}

// WriteJSON writes v as indented JSON to path, creating parent directories.
func WriteJSON(path string, v any) error {
	const op = "WriteJSON"

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: failed to encode %s: %w", op, path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%s: failed to create %s: %w", op, dir, err)
		}
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%s: failed to write %s: %w", op, path, err)
	}
	return nil
}

// readJSON decodes path into v. A missing file is reported as ok == false.
func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log := logger.WithComponent("dataset")
		log.Debug().Str("file", path).Msg("Input file not present")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}
