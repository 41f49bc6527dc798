// Package analyze computes the aggregations behind /api/analyze: numeric
// column sums and means, row counts, and revenue grouped by region or
// product.
package analyze

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Result mirrors the response body of the analyze endpoint.
type Result struct {
	InputRows    int              `json:"input_rows"`
	InputColumns []string         `json:"input_columns"`
	Aggregations map[string]any   `json:"aggregations"`
	SampleData   []map[string]any `json:"sample_data"`
}

// GroupStats is the per-group revenue summary.
type GroupStats struct {
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Run computes the requested aggregations over the rows. Unknown aggregation
// names are ignored.
func Run(rows []map[string]any, aggregations []string) Result {
	res := Result{
		InputRows:    len(rows),
		InputColumns: columnsOf(rows),
		Aggregations: map[string]any{},
		SampleData:   sample(rows, 10),
	}

	numeric := numericColumns(rows)
	for _, agg := range aggregations {
		switch agg {
		case "sum":
			if len(numeric) > 0 {
				res.Aggregations["sum"] = sumColumns(rows, numeric)
			}
		case "mean":
			if len(numeric) > 0 {
				res.Aggregations["mean"] = meanColumns(rows, numeric)
			}
		case "count":
			res.Aggregations["count"] = len(rows)
		case "by_region":
			if g := groupRevenue(rows, "region"); g != nil {
				res.Aggregations["by_region"] = g
			}
		case "by_product":
			if g := groupRevenue(rows, "product"); g != nil {
				res.Aggregations["by_product"] = g
			}
		}
	}
	return res
}

// SampleRows generates the deterministic fallback dataset used when the
// caller supplies no data (seeded, 100 rows).
func SampleRows() []map[string]any {
	rng := rand.New(rand.NewSource(42))
	products := []string{"Widget A", "Widget B", "Gadget X", "Gadget Y", "Service Z"}
	regions := []string{"North", "South", "East", "West"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]map[string]any, 0, 100)
	for i := 0; i < 100; i++ {
		quantity := rng.Intn(50) + 1
		unitPrice := round2(rng.Float64()*490 + 10)
		row := map[string]any{
			"id":         i + 1,
			"date":       base.AddDate(0, 0, i%90).Format("2006-01-02"),
			"product":    products[rng.Intn(len(products))],
			"region":     regions[rng.Intn(len(regions))],
			"quantity":   quantity,
			"unit_price": unitPrice,
		}
		row["revenue"] = round2(float64(quantity) * unitPrice)
		rows = append(rows, row)
	}
	return rows
}

// GenerateReport builds a seeded dataset with the requested columns. The
// column name picks the value kind: id counts up, date walks a calendar
// year, money-like names get 10..1000 floats, count-like names 1..100 ints,
// grouping names cycle through four category labels, anything else becomes
// "<name>_<row>".
func GenerateReport(rows int, columns []string, seed int64) []map[string]any {
	if rows < 0 {
		rows = 0
	}
	rng := rand.New(rand.NewSource(seed))
	categories := []string{"A", "B", "C", "D"}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	out := make([]map[string]any, 0, rows)
	for i := 0; i < rows; i++ {
		record := make(map[string]any, len(columns))
		for _, col := range columns {
			switch col {
			case "id":
				record[col] = i + 1
			case "date":
				record[col] = base.AddDate(0, 0, i%365).Format("2006-01-02")
			case "value", "amount", "revenue", "price":
				record[col] = round2(rng.Float64()*990 + 10)
			case "quantity", "count":
				record[col] = rng.Intn(100) + 1
			case "category", "type", "region":
				record[col] = categories[rng.Intn(len(categories))]
			default:
				record[col] = fmt.Sprintf("%s_%d", col, i+1)
			}
		}
		out = append(out, record)
	}
	return out
}

// RandomDataset fills rows x cols with uniform floats for payload-size
// testing. Unseeded on purpose.
func RandomDataset(rows, cols int) []map[string]any {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	out := make([]map[string]any, 0, rows)
	for i := 0; i < rows; i++ {
		record := make(map[string]any, cols)
		for j := 0; j < cols; j++ {
			record[fmt.Sprintf("col_%d", j)] = rng.Float64()
		}
		out = append(out, record)
	}
	return out
}

func columnsOf(rows []map[string]any) []string {
	if len(rows) == 0 {
		return []string{}
	}
	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// numericColumns returns columns whose values are numbers in every row that
// carries them.
func numericColumns(rows []map[string]any) []string {
	numeric := map[string]bool{}
	for _, row := range rows {
		for k, v := range row {
			if _, ok := asFloat(v); ok {
				if _, seen := numeric[k]; !seen {
					numeric[k] = true
				}
			} else {
				numeric[k] = false
			}
		}
	}
	var cols []string
	for k, ok := range numeric {
		if ok {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

func sumColumns(rows []map[string]any, cols []string) map[string]float64 {
	out := make(map[string]float64, len(cols))
	for _, col := range cols {
		var sum float64
		for _, row := range rows {
			if v, ok := asFloat(row[col]); ok {
				sum += v
			}
		}
		out[col] = round2(sum)
	}
	return out
}

func meanColumns(rows []map[string]any, cols []string) map[string]float64 {
	out := make(map[string]float64, len(cols))
	for _, col := range cols {
		var sum float64
		var n int
		for _, row := range rows {
			if v, ok := asFloat(row[col]); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			out[col] = round2(sum / float64(n))
		}
	}
	return out
}

func groupRevenue(rows []map[string]any, key string) map[string]GroupStats {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, row := range rows {
		group, ok := row[key].(string)
		if !ok {
			continue
		}
		rev, ok := asFloat(row["revenue"])
		if !ok {
			continue
		}
		sums[group] += rev
		counts[group]++
	}
	if len(sums) == 0 {
		return nil
	}
	out := make(map[string]GroupStats, len(sums))
	for group, sum := range sums {
		out[group] = GroupStats{
			Sum:   round2(sum),
			Mean:  round2(sum / float64(counts[group])),
			Count: counts[group],
		}
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func sample(rows []map[string]any, n int) []map[string]any {
	if len(rows) < n {
		n = len(rows)
	}
	out := make([]map[string]any, n)
	copy(out, rows[:n])
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
