package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"bookrecon/internal/logger"
	"bookrecon/internal/normalize"
	"bookrecon/internal/reconciliation"
	"bookrecon/pkg/models"
)

// RangeReader reads a value range such as "Bank!A:G". sheets.Service
// implements it.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// SheetNames names the sheets holding each input. Empty names are skipped.
type SheetNames struct {
	Gateway     string
	Bank        string
	Orders      string
	Fulfillment string
}

// DefaultSheetNames returns the sheet names of the bookkeeping spreadsheet.
func DefaultSheetNames() SheetNames {
	return SheetNames{
		Gateway:     "PayPal",
		Bank:        "Bank",
		Orders:      "Bestellungen",
		Fulfillment: "Rechnungen",
	}
}

// SheetsReader reads reconciliation input from a spreadsheet.
type SheetsReader struct {
	reader RangeReader
	log    zerolog.Logger
}

// NewSheetsReader creates a reader on top of r.
func NewSheetsReader(r RangeReader) *SheetsReader {
	return &SheetsReader{
		reader: r,
		log:    logger.WithComponent("dataset-sheets"),
	}
}

// ReadInput reads all sheets named in names. Invoices are not kept in the
// spreadsheet and must be added by the caller.
func (sr *SheetsReader) ReadInput(ctx context.Context, names SheetNames) (reconciliation.Input, error) {
	const op = "ReadInput"

	var in reconciliation.Input

	if names.Gateway != "" {
		payments, err := sr.ReadGatewayPayments(ctx, names.Gateway)
		if err != nil {
			return in, fmt.Errorf("%s: %w", op, err)
		}
		in.Payments = append(in.Payments, payments...)
	}

	if names.Bank != "" {
		payments, err := sr.ReadBankPayments(ctx, names.Bank)
		if err != nil {
			return in, fmt.Errorf("%s: %w", op, err)
		}
		in.Payments = append(in.Payments, payments...)
	}

	if names.Orders != "" {
		orders, err := sr.ReadOrders(ctx, names.Orders)
		if err != nil {
			return in, fmt.Errorf("%s: %w", op, err)
		}
		in.Orders = orders
	}

	if names.Fulfillment != "" {
		records, err := sr.ReadFulfillment(ctx, names.Fulfillment)
		if err != nil {
			return in, fmt.Errorf("%s: %w", op, err)
		}
		in.Fulfillment = records
	}

	return in, nil
}

// ReadGatewayPayments reads the provider export sheet.
func (sr *SheetsReader) ReadGatewayPayments(ctx context.Context, sheetName string) ([]models.Payment, error) {
	const op = "ReadGatewayPayments"

	// Expected columns: A=Datum, B=Name, C=Typ, D=Währung, E=Brutto, F=Gebühr,
	// G=Netto, H=Absender E-Mail-Adresse, I=Transaktionscode, J=Telefon,
	// K=Adresszeile 1, L=PLZ, M=Ort, N=Land
	rows, err := sr.rows(ctx, sheetName, "A:N")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	gateway := make([]GatewayRow, 0, len(rows))
	for _, row := range rows {
		gateway = append(gateway, GatewayRow{
			Date:            getString(row, 0),
			Name:            getString(row, 1),
			Type:            getString(row, 2),
			Currency:        getString(row, 3),
			Gross:           getString(row, 4),
			Fee:             getString(row, 5),
			Net:             getString(row, 6),
			Email:           getString(row, 7),
			TransactionCode: getString(row, 8),
			Phone:           getString(row, 9),
			Address:         getString(row, 10),
			PostalCode:      getString(row, 11),
			City:            getString(row, 12),
			Country:         getString(row, 13),
		})
	}

	return GatewayPayments(sheetName, gateway), nil
}

// ReadBankPayments reads the bank statement sheet.
func (sr *SheetsReader) ReadBankPayments(ctx context.Context, sheetName string) ([]models.Payment, error) {
	const op = "ReadBankPayments"

	// Expected columns: A=Buchungstag, B=Empfänger/Zahlungspflichtiger,
	// C=Kundenreferenz, D=Vorgang/Verwendungszweck, E=Währung, F=Umsatz, G=Soll/Haben
	rows, err := sr.rows(ctx, sheetName, "A:G")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bank := make([]BankRow, 0, len(rows))
	for _, row := range rows {
		bank = append(bank, BankRow{
			BookingDate:       getString(row, 0),
			Name:              getString(row, 1),
			CustomerReference: getString(row, 2),
			Purpose:           getRaw(row, 3),
			Currency:          getString(row, 4),
			Amount:            getString(row, 5),
			DebitCredit:       getString(row, 6),
		})
	}

	return BankPayments(sheetName, bank), nil
}

// ReadOrders reads the order sheet, which holds one row per line item. Rows
// sharing an order number are merged into one order in sheet order.
func (sr *SheetsReader) ReadOrders(ctx context.Context, sheetName string) ([]models.Order, error) {
	const op = "ReadOrders"

	// Expected columns: A=Bestellnummer, B=Datum, C=Anrede, D=Vorname, E=Nachname,
	// F=E-Mail, G=Telefon, H=Straße, I=PLZ, J=Ort, K=Gesamtbetrag, L=Versandkosten,
	// M=Zahlungsart, N=Transaktionscode, O=Position, P=ISBN, Q=Titel, R=Menge,
	// S=Einzelpreis, T=Steuersatz, U=Steuerbetrag
	rows, err := sr.rows(ctx, sheetName, "A:U")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var orders []models.Order
	index := make(map[string]int)

	for i, row := range rows {
		rowNum := i + 2

		id := getString(row, 0)
		if id == "" {
			sr.log.Warn().Int("row", rowNum).Str("sheet", sheetName).Msg("Skipping order row without number")
			continue
		}

		pos, ok := index[id]
		if !ok {
			order, err := sr.parseOrder(row)
			if err != nil {
				sr.log.Warn().
					Err(NewRowError(sheetName, rowNum, err)).
					Msg("Failed to parse order, skipping")
				continue
			}
			pos = len(orders)
			index[id] = pos
			orders = append(orders, order)
		}

		if item, ok := parseLineItem(row); ok {
			orders[pos].LineItems = append(orders[pos].LineItems, item)
		}
	}

	sr.log.Info().
		Int("total_rows", len(rows)).
		Int("orders", len(orders)).
		Str("sheet", sheetName).
		Msg("Orders read successfully")

	return orders, nil
}

// ReadFulfillment reads the invoice assignment sheet: A=Bestellnummer,
// B=Rechnungsnummer. An order billed on several invoices spans several rows.
func (sr *SheetsReader) ReadFulfillment(ctx context.Context, sheetName string) ([]models.FulfillmentRecord, error) {
	const op = "ReadFulfillment"

	rows, err := sr.rows(ctx, sheetName, "A:B")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var records []models.FulfillmentRecord
	index := make(map[string]int)

	for i, row := range rows {
		orderID, number := getString(row, 0), getString(row, 1)
		if orderID == "" || number == "" {
			sr.log.Warn().Int("row", i+2).Str("sheet", sheetName).Msg("Skipping incomplete invoice assignment")
			continue
		}

		pos, ok := index[orderID]
		if !ok {
			pos = len(records)
			index[orderID] = pos
			records = append(records, models.FulfillmentRecord{OrderID: orderID})
		}
		records[pos].Invoices = append(records[pos].Invoices, models.InvoiceAllocation{Number: number})
	}

	sr.log.Info().
		Int("total_rows", len(rows)).
		Int("orders", len(records)).
		Str("sheet", sheetName).
		Msg("Invoice assignments read successfully")

	return records, nil
}

// rows reads columns of sheetName without the header row.
func (sr *SheetsReader) rows(ctx context.Context, sheetName, columns string) ([][]interface{}, error) {
	sr.log.Info().Str("sheet", sheetName).Msg("Reading sheet")

	values, err := sr.reader.ReadRange(ctx, sheetName+"!"+columns)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", sheetName, err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", sheetName, ErrEmptySheet)
	}

	return values[1:], nil
}

func (sr *SheetsReader) parseOrder(row []interface{}) (models.Order, error) {
	const op = "parseOrder"

	date, err := normalize.Date(getString(row, 1))
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	total, err := normalize.Amount(getString(row, 10))
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: total: %w", op, err)
	}

	shipping, err := normalize.Amount(getString(row, 11))
	if err != nil {
		shipping = "0.00"
	}

	code := getString(row, 13)
	if code == "" {
		code = "none"
	}

	return models.Order{
		ID:           getString(row, 0),
		Date:         date,
		Salutation:   getString(row, 2),
		FirstName:    getString(row, 3),
		LastName:     getString(row, 4),
		Email:        getString(row, 5),
		Phone:        reconciliation.NormalizePhone(getString(row, 6)),
		Street:       getString(row, 7),
		PostalCode:   getString(row, 8),
		City:         getString(row, 9),
		GrossTotal:   total,
		ShippingCost: shipping,
		Settlement: models.Settlement{
			Gateway:         getString(row, 12),
			TransactionCode: code,
		},
	}, nil
}

// parseLineItem reads the item columns of an order row. Rows without a title
// and ISBN carry no item.
func parseLineItem(row []interface{}) (models.LineItem, bool) {
	sku, title := getString(row, 15), getString(row, 16)
	if sku == "" && title == "" {
		return models.LineItem{}, false
	}

	quantity, err := strconv.Atoi(getString(row, 17))
	if err != nil || quantity < 1 {
		quantity = 1
	}

	item := models.LineItem{
		ID:       getString(row, 14),
		SKU:      sku,
		Title:    title,
		Quantity: quantity,
	}
	if price, err := normalize.Amount(getString(row, 18)); err == nil {
		item.UnitPrice = price
	}
	if rate := strings.ReplaceAll(getString(row, 19), " ", ""); rate != "" {
		item.TaxRate = strings.TrimSuffix(rate, "%") + "%"
	}
	if tax, err := normalize.Amount(getString(row, 20)); err == nil {
		item.TaxAmount = tax
	}
	return item, true
}

// getString safely extracts a trimmed string value from a row slice
func getString(row []interface{}, index int) string {
	return strings.TrimSpace(getRaw(row, index))
}

// getRaw extracts a value keeping inner line breaks
func getRaw(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return fmt.Sprintf("%v", row[index])
}
