// Command samplegen populates data/samples with deterministic test fixtures:
// tabular CSVs, JSON reference data, a digital PDF, and an XLSX workbook.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("create directories failed", "error", err)
		os.Exit(1)
	}

	dir := cfg.Paths.SamplesDir
	rng := rand.New(rand.NewSource(42))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"sales_transactions.csv", func() error { return writeSalesCSV(dir, rng, 1000) }},
		{"financial_assumptions.json", func() error { return writeFinancialJSON(dir) }},
		{"employee_metrics.json", func() error { return writeEmployeeJSON(dir, rng) }},
		{"time_series_data.csv", func() error { return writeTimeSeriesCSV(dir, rng, 365) }},
		{"quarterly_report.pdf", func() error { return writeReportPDF(dir) }},
		{"sales_summary.xlsx", func() error { return writeSummaryXLSX(dir, rng) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			logger.Error("sample generation failed", "file", step.name, "error", err)
			os.Exit(1)
		}
		logger.Info("sample written", "file", step.name)
	}
	fmt.Printf("samples written to %s\n", dir)
}

func writeSalesCSV(dir string, rng *rand.Rand, n int) error {
	products := []string{"Widget A", "Widget B", "Gadget X", "Gadget Y", "Service Plan", "Subscription"}
	regions := []string{"North", "South", "East", "West", "Central"}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	f, err := os.Create(filepath.Join(dir, "sales_transactions.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"transaction_id", "date", "customer_id", "product", "quantity", "unit_price", "total", "region"}); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		quantity := rng.Intn(50) + 1
		unitPrice := round2(rng.Float64()*490 + 10)
		row := []string{
			fmt.Sprintf("TXN-%05d", i+1),
			start.AddDate(0, 0, rng.Intn(365)).Format("2006-01-02"),
			fmt.Sprintf("CUST-%d", rng.Intn(9000)+1000),
			products[rng.Intn(len(products))],
			strconv.Itoa(quantity),
			formatFloat(unitPrice),
			formatFloat(round2(float64(quantity) * unitPrice)),
			regions[rng.Intn(len(regions))],
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFinancialJSON(dir string) error {
	type scenario struct {
		Name             string  `json:"name"`
		RevenueGrowthPct float64 `json:"revenue_growth_pct"`
		COGSPct          float64 `json:"cogs_pct"`
		OpexGrowthPct    float64 `json:"opex_growth_pct"`
		TaxRate          float64 `json:"tax_rate"`
		DiscountRate     float64 `json:"discount_rate"`
	}
	data := map[string]any{
		"model_name":   "FY2025 Financial Model",
		"created_date": time.Now().Format("2006-01-02"),
		"scenarios": []scenario{
			{"Base Case", 0.08, 0.45, 0.05, 0.21, 0.10},
			{"Upside Case", 0.15, 0.42, 0.06, 0.21, 0.10},
			{"Downside Case", 0.02, 0.50, 0.03, 0.21, 0.12},
		},
		"base_metrics": map[string]int{
			"revenue_fy2024":     10000000,
			"cogs_fy2024":        4500000,
			"opex_fy2024":        3000000,
			"shares_outstanding": 1000000,
		},
	}
	return writeJSONFile(filepath.Join(dir, "financial_assumptions.json"), data)
}

func writeEmployeeJSON(dir string, rng *rand.Rand) error {
	departments := []string{"Engineering", "Sales", "Marketing", "Finance", "Operations", "HR"}
	baseSalary := map[string]int{
		"Engineering": 120000, "Sales": 80000, "Marketing": 75000,
		"Finance": 90000, "Operations": 70000, "HR": 65000,
	}
	firstNames := []string{"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Quinn", "Avery"}
	lastNames := []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}

	employees := make([]map[string]any, 0, 50)
	for i := 0; i < 50; i++ {
		dept := departments[rng.Intn(len(departments))]
		employees = append(employees, map[string]any{
			"employee_id":       fmt.Sprintf("EMP-%04d", i+1),
			"name":              firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			"department":        dept,
			"salary":            baseSalary[dept] + rng.Intn(40001) - 10000,
			"performance_score": round1(rng.Float64()*2.5 + 2.5),
			"tenure_years":      rng.Intn(16),
			"is_manager":        rng.Float64() < 0.2,
		})
	}
	data := map[string]any{
		"report_date":     time.Now().Format("2006-01-02"),
		"total_employees": len(employees),
		"employees":       employees,
	}
	return writeJSONFile(filepath.Join(dir, "employee_metrics.json"), data)
}

func writeTimeSeriesCSV(dir string, rng *rand.Rand, days int) error {
	f, err := os.Create(filepath.Join(dir, "time_series_data.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "metric_a", "metric_b", "metric_c"}); err != nil {
		return err
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b, c := 1000.0, 500.0, 250.0
	for i := 0; i < days; i++ {
		a = max(0, a+rng.Float64()*45-20)
		b = max(0, b+rng.Float64()*33-15)
		c = max(0, c+rng.Float64()*22-10)
		row := []string{
			start.AddDate(0, 0, i).Format("2006-01-02"),
			formatFloat(round2(a)),
			formatFloat(round2(b)),
			formatFloat(round2(c)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeReportPDF emits a three-page digital PDF: narrative text, a revenue
// table, and a closing summary. The table page exercises local table
// detection.
func writeReportPDF(dir string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Quarterly Business Report")
	pdf.Ln(16)
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 6, "This report summarizes quarterly performance across all regions. "+
		"Revenue grew steadily through the period, with the strongest gains in the North "+
		"and West regions. Operating costs remained within the planned envelope.", "", "L", false)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Revenue by Region")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	rows := [][]string{
		{"Region", "Q1", "Q2", "Q3"},
		{"North", "125000", "131000", "142500"},
		{"South", "98000", "96500", "101200"},
		{"East", "110300", "115800", "119400"},
		{"West", "134700", "140200", "151900"},
	}
	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(45, 8, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Outlook")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 6, "Management expects continued growth next quarter, driven by the new "+
		"subscription tier and expanded service plans.", "", "L", false)

	return pdf.OutputFileAndClose(filepath.Join(dir, "quarterly_report.pdf"))
}

func writeSummaryXLSX(dir string, rng *rand.Rand) error {
	f := excelize.NewFile()
	const sheet = "Summary"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headers := []string{"region", "quarter", "revenue", "units"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	regions := []string{"North", "South", "East", "West"}
	row := 2
	for _, region := range regions {
		for q := 1; q <= 4; q++ {
			values := []any{
				region,
				fmt.Sprintf("Q%d", q),
				round2(rng.Float64()*80000 + 50000),
				rng.Intn(900) + 100,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}
	return f.SaveAs(filepath.Join(dir, "sales_summary.xlsx"))
}

func writeJSONFile(path string, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
