package dataset

import (
	"errors"
	"fmt"
	"strings"

	"bookrecon/internal/logger"
	"bookrecon/internal/normalize"
	"bookrecon/internal/reconciliation"
	"bookrecon/pkg/models"
)

// Gateway payment types
const (
	TypeGeneralPayment = "Allgemeine Zahlung"
	ProviderPayPal     = "PayPal"
)

// GatewayRow is one line of a payment provider activity export. Field names
// follow the German column headers of the export.
type GatewayRow struct {
	Date            string `json:"Datum"`
	Name            string `json:"Name"`
	Type            string `json:"Typ"`
	Currency        string `json:"Währung"`
	Gross           string `json:"Brutto"`
	Fee             string `json:"Gebühr"`
	Net             string `json:"Netto"`
	Email           string `json:"Absender E-Mail-Adresse"`
	TransactionCode string `json:"Transaktionscode"`
	Phone           string `json:"Telefon"`
	Address         string `json:"Adresszeile 1"`
	PostalCode      string `json:"PLZ"`
	City            string `json:"Ort"`
	Country         string `json:"Land"`
}

// BankRow is one line of a bank statement export.
type BankRow struct {
	BookingDate       string `json:"Buchungstag"`
	Name              string `json:"Empfänger/Zahlungspflichtiger"`
	CustomerReference string `json:"Kundenreferenz"`
	Purpose           string `json:"Vorgang/Verwendungszweck"`
	Currency          string `json:"Währung"`
	Amount            string `json:"Umsatz"`
	DebitCredit       string `json:"Soll/Haben"` // "S" for debits, "H" for credits
}

// GatewayPayment converts a provider export row. Withdrawals keep their negative
// amount; the engine screens them out.
func GatewayPayment(row GatewayRow) (models.Payment, error) {
	const op = "GatewayPayment"

	code := strings.TrimSpace(row.TransactionCode)
	if code == "" {
		return models.Payment{}, fmt.Errorf("%s: transaction code: %w", op, ErrMissingField)
	}

	date, err := normalize.Date(row.Date)
	if err != nil {
		return models.Payment{}, fmt.Errorf("%s: %s: %w", op, code, err)
	}

	gross, err := normalize.Amount(row.Gross)
	if err != nil {
		return models.Payment{}, fmt.Errorf("%s: %s: gross: %w", op, code, err)
	}

	method := models.MethodShopOrder
	if strings.TrimSpace(row.Type) == TypeGeneralPayment {
		method = models.MethodTransfer
	}

	return models.Payment{
		ID:         code,
		Kind:       models.KindGateway,
		Date:       date,
		Amount:     gross,
		Currency:   strings.TrimSpace(row.Currency),
		Name:       strings.TrimSpace(row.Name),
		Confidence: models.Unsicher,
		Gateway: &models.GatewayDetails{
			Provider:        ProviderPayPal,
			TransactionCode: code,
			Method:          method,
			Email:           strings.TrimSpace(row.Email),
			Phone:           reconciliation.NormalizePhone(row.Phone),
			Address:         strings.TrimSpace(row.Address),
			PostalCode:      strings.TrimSpace(row.PostalCode),
			City:            strings.TrimSpace(row.City),
			Country:         strings.TrimSpace(row.Country),
			Fee:             optionalAmount(row.Fee),
			Net:             optionalAmount(row.Net),
		},
	}, nil
}

// BankPayment converts a bank statement row. Debits, opening and closing
// balances and account closings are rejected with ErrSkippedRow. The first
// memo line names the transaction type; the remaining lines form the reference.
func BankPayment(row BankRow) (models.Payment, error) {
	const op = "BankPayment"

	if strings.EqualFold(strings.TrimSpace(row.DebitCredit), "S") {
		return models.Payment{}, fmt.Errorf("%s: debit: %w", op, ErrSkippedRow)
	}

	switch strings.TrimSpace(row.CustomerReference) {
	case "Anfangssaldo", "Endsaldo":
		return models.Payment{}, fmt.Errorf("%s: balance line: %w", op, ErrSkippedRow)
	}

	lines := strings.Split(strings.ReplaceAll(row.Purpose, "\r\n", "\n"), "\n")
	if strings.EqualFold(strings.TrimSpace(lines[0]), "abschluss") {
		return models.Payment{}, fmt.Errorf("%s: account closing: %w", op, ErrSkippedRow)
	}

	date, err := normalize.Date(row.BookingDate)
	if err != nil {
		return models.Payment{}, fmt.Errorf("%s: %w", op, err)
	}

	amount, err := normalize.Amount(row.Amount)
	if err != nil {
		return models.Payment{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Payment{
		Kind:       models.KindBankTransfer,
		Date:       date,
		Amount:     amount,
		Currency:   strings.TrimSpace(row.Currency),
		Name:       strings.TrimSpace(row.Name),
		Confidence: models.Unsicher,
		Bank:       &models.BankDetails{Reference: strings.Join(lines[1:], "")},
	}, nil
}

// GatewayPayments converts provider rows. Rows repeating a transaction code are
// dropped, as are rows that cannot be converted.
func GatewayPayments(source string, rows []GatewayRow) []models.Payment {
	log := logger.WithComponent("dataset")

	payments := make([]models.Payment, 0, len(rows))
	seen := make(map[string]bool)

	for i, row := range rows {
		payment, err := GatewayPayment(row)
		if err != nil {
			log.Warn().Err(NewRowError(source, i+2, err)).Msg("Skipping gateway row")
			continue
		}
		if seen[payment.ID] {
			log.Debug().Str("transaction_code", payment.ID).Msg("Skipping duplicate transaction")
			continue
		}
		seen[payment.ID] = true
		payments = append(payments, payment)
	}

	log.Info().
		Str("source", source).
		Int("rows", len(rows)).
		Int("payments", len(payments)).
		Msg("Gateway export converted")

	return payments
}

// BankPayments converts bank rows, leaving out skipped and broken rows.
func BankPayments(source string, rows []BankRow) []models.Payment {
	log := logger.WithComponent("dataset")

	payments := make([]models.Payment, 0, len(rows))
	for i, row := range rows {
		payment, err := BankPayment(row)
		if errors.Is(err, ErrSkippedRow) {
			continue
		}
		if err != nil {
			log.Warn().Err(NewRowError(source, i+2, err)).Msg("Skipping bank row")
			continue
		}
		payments = append(payments, payment)
	}

	log.Info().
		Str("source", source).
		Int("rows", len(rows)).
		Int("payments", len(payments)).
		Msg("Bank statement converted")

	return payments
}

func optionalAmount(s string) string {
	amount, err := normalize.Amount(s)
	if err != nil {
		return ""
	}
	return amount
}
