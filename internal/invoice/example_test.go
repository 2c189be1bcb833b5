package invoice_test

import (
	"errors"
	"fmt"

	"bookrecon/internal/invoice"
)

func ExampleParser_Parse() {
	lines := []string{
		"MwSt. 5,00 %",
		"Netto",
		"0,50",
		"Rechnungsbetrag gesamt brutto",
		"11,20",
	}

	doc, err := invoice.NewParser().Parse("R2023001234", lines)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(doc.Family, doc.GrossTotal)
	fmt.Println(doc.Taxes())
	// Output:
	// receipt 11.20
	// map[5%:0.50]
}

func ExampleParser_ParseFile() {
	doc, err := invoice.NewParser().ParseFile("31234-20230115-2023001234.pdf", []string{"Hallo"})

	fmt.Println(doc.ID, doc.Date)
	fmt.Println(errors.Is(err, invoice.ErrEmptyDocument))
	// Output:
	// 2023001234 2023-01-15
	// true
}
