package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bookrecon/internal/composite"
	"bookrecon/internal/dataset"
	"bookrecon/internal/logger"
	"bookrecon/internal/normalize"
	"bookrecon/internal/reconciliation"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reports on reconciled payments and orders",
	Long: `Reports on the same input as "bookrecon reconcile":

  revenue   reconciled payment amounts per month
  ranking   best selling products
  contacts  customer addresses for the newsletter`,
}

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Monthly revenue of reconciled payments",
	Example: `  # Revenue of the first quarter
  bookrecon report revenue --input ./daten --year 2023 --quarter 1`,
	RunE: runRevenue,
}

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Products ranked by sold quantity",
	Example: `  # Products sold at least 5 times
  bookrecon report ranking --input ./daten --min 5`,
	RunE: runRanking,
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Customer contacts with recent orders",
	Long: `List one contact per email address of customers who ordered on or after
the cutoff date (default: two years ago).

Optional environment variables:
  CONTACTS_BLOCKLIST - Comma separated email addresses to leave out`,
	Example: `  # Contacts since 2022 as JSON
  bookrecon report contacts --input ./daten --cutoff 2022-01-01 -o kontakte.json`,
	RunE: runContacts,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(revenueCmd, rankingCmd, contactsCmd)

	for _, c := range []*cobra.Command{revenueCmd, rankingCmd, contactsCmd} {
		addInputFlags(c)
		c.Flags().StringP("output", "o", "", "Write the report as JSON to this file")
		c.Flags().Int("timeout", 300, "Timeout in seconds for Google Sheets access")
	}

	revenueCmd.Flags().Int("year", time.Now().Year(), "Year of the report")
	revenueCmd.Flags().Int("quarter", 0, "Quarter 1-4 (default: whole year)")

	rankingCmd.Flags().Int("min", 1, "Minimum sold quantity")

	contactsCmd.Flags().String("cutoff", "", "Oldest order date, YYYY-MM-DD (default: two years ago)")
}

// RevenueRow is one month of the revenue report
type RevenueRow struct {
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

func runRevenue(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	conf, err := appConfig()
	if err != nil {
		return err
	}

	year, _ := cmd.Flags().GetInt("year")
	quarter, _ := cmd.Flags().GetInt("quarter")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	months, err := composite.Months(quarter)
	if err != nil {
		return err
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

	report, err := res.Tree.RevenueReport(strconv.Itoa(year), quarter)
	if err != nil {
		return err
	}

	rows := make([]RevenueRow, 0, len(months))
	total := decimal.Zero
	for _, m := range months {
		rows = append(rows, RevenueRow{Month: m, Amount: report[m]})
		if d, err := normalize.Decimal(report[m]); err == nil {
			total = total.Add(d)
		}
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("                 UMSATZ %d\n", year)
	fmt.Println(strings.Repeat("=", 50))
	for _, row := range rows {
		fmt.Printf("%s %12s EUR\n", time.Month(row.Month).String()[:3], row.Amount)
	}
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("Summe %12s EUR\n", normalize.Format(total))

	log.Info().
		Int("year", year).
		Int("quarter", quarter).
		Int("payments", len(res.Payments)).
		Msg("Revenue report created")

	return writeReport(outputPath, rows)
}

func runRanking(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	conf, err := appConfig()
	if err != nil {
		return err
	}

	minQuantity, _ := cmd.Flags().GetInt("min")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	in, err := loadInput(ctx, cmd, conf, log)
	if err != nil {
		return err
	}

	ranking := orderTree(in).Ranking(minQuantity)

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 BESTSELLER")
	fmt.Println(strings.Repeat("=", 50))
	for i, entry := range ranking {
		fmt.Printf("%3d. %4dx %-14s %s\n", i+1, entry.Quantity, entry.SKU, entry.Title)
	}
	if len(ranking) == 0 {
		fmt.Println("Keine Artikel gefunden.")
	}

	log.Info().
		Int("orders", len(in.Orders)).
		Int("products", len(ranking)).
		Msg("Ranking created")

	return writeReport(outputPath, ranking)
}

func runContacts(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	conf, err := appConfig()
	if err != nil {
		return err
	}

	cutoffStr, _ := cmd.Flags().GetString("cutoff")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cutoff := composite.DefaultCutoff(time.Now())
	if cutoffStr != "" {
		cutoff, err = normalize.ParseDate(cutoffStr)
		if err != nil {
			return fmt.Errorf("invalid --cutoff: %w", err)
		}
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	in, err := loadInput(ctx, cmd, conf, log)
	if err != nil {
		return err
	}

	contacts := orderTree(in).Contacts(cutoff, conf.ContactsBlocklist)

	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("          KONTAKTE SEIT %s\n", cutoff.Format("02.01.2006"))
	fmt.Println(strings.Repeat("=", 50))
	for _, c := range contacts {
		fmt.Printf("%s  %s %s <%s>\n", c.LastOrder, c.FirstName, c.LastName, c.Email)
	}
	fmt.Printf("Anzahl: %d\n", len(contacts))

	log.Info().
		Time("cutoff", cutoff).
		Int("contacts", len(contacts)).
		Msg("Contacts collected")

	return writeReport(outputPath, contacts)
}

// orderTree holds every order of the input, sorted by date
func orderTree(in reconciliation.Input) *composite.Tree {
	orders := append(in.Orders[:0:0], in.Orders...)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Date < orders[j].Date
	})

	tree := composite.NewTree()
	for _, order := range orders {
		tree.Add(composite.NewOrderNode(order))
	}
	return tree
}

func writeReport(outputPath string, v interface{}) error {
	if outputPath == "" {
		return nil
	}
	if err := dataset.WriteJSON(outputPath, v); err != nil {
		return err
	}
	fmt.Printf("JSON: %s\n", outputPath)
	return nil
}
