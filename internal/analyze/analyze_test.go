package analyze

import (
	"fmt"
	"reflect"
	"testing"
)

func testRows() []map[string]any {
	return []map[string]any{
		{"region": "North", "product": "Widget A", "quantity": 2, "revenue": 20.0},
		{"region": "North", "product": "Widget B", "quantity": 1, "revenue": 10.0},
		{"region": "South", "product": "Widget A", "quantity": 3, "revenue": 45.5},
	}
}

func TestRunSumMeanCount(t *testing.T) {
	res := Run(testRows(), []string{"sum", "mean", "count"})

	if res.InputRows != 3 {
		t.Errorf("input_rows = %d", res.InputRows)
	}
	if !reflect.DeepEqual(res.InputColumns, []string{"product", "quantity", "region", "revenue"}) {
		t.Errorf("input_columns = %v", res.InputColumns)
	}

	sums, ok := res.Aggregations["sum"].(map[string]float64)
	if !ok {
		t.Fatalf("sum missing: %v", res.Aggregations)
	}
	if sums["revenue"] != 75.5 || sums["quantity"] != 6 {
		t.Errorf("sums = %v", sums)
	}

	means := res.Aggregations["mean"].(map[string]float64)
	if means["quantity"] != 2 {
		t.Errorf("means = %v", means)
	}
	if res.Aggregations["count"] != 3 {
		t.Errorf("count = %v", res.Aggregations["count"])
	}
}

func TestRunGroupings(t *testing.T) {
	res := Run(testRows(), []string{"by_region", "by_product"})

	byRegion := res.Aggregations["by_region"].(map[string]GroupStats)
	north := byRegion["North"]
	if north.Sum != 30 || north.Count != 2 || north.Mean != 15 {
		t.Errorf("North = %+v", north)
	}
	south := byRegion["South"]
	if south.Sum != 45.5 || south.Count != 1 {
		t.Errorf("South = %+v", south)
	}

	byProduct := res.Aggregations["by_product"].(map[string]GroupStats)
	if byProduct["Widget A"].Sum != 65.5 {
		t.Errorf("Widget A = %+v", byProduct["Widget A"])
	}
}

func TestRunIgnoresUnknownAggregations(t *testing.T) {
	res := Run(testRows(), []string{"median", "count"})
	if _, ok := res.Aggregations["median"]; ok {
		t.Error("unknown aggregation produced output")
	}
	if res.Aggregations["count"] != 3 {
		t.Errorf("count = %v", res.Aggregations["count"])
	}
}

func TestRunMixedTypeColumnNotNumeric(t *testing.T) {
	rows := []map[string]any{
		{"v": 1},
		{"v": "two"},
	}
	res := Run(rows, []string{"sum"})
	if _, ok := res.Aggregations["sum"]; ok {
		t.Errorf("mixed column treated as numeric: %v", res.Aggregations)
	}
}

func TestRunEmptyInput(t *testing.T) {
	res := Run(nil, []string{"sum", "count"})
	if res.InputRows != 0 || len(res.InputColumns) != 0 || len(res.SampleData) != 0 {
		t.Errorf("res = %+v", res)
	}
	if res.Aggregations["count"] != 0 {
		t.Errorf("count = %v", res.Aggregations["count"])
	}
}

func TestSampleDataCapped(t *testing.T) {
	res := Run(SampleRows(), []string{"count"})
	if len(res.SampleData) != 10 {
		t.Errorf("sample_data = %d rows, want 10", len(res.SampleData))
	}
}

func TestGenerateReport(t *testing.T) {
	rows := GenerateReport(5, []string{"id", "date", "amount", "quantity", "type", "note"}, 42)
	if len(rows) != 5 {
		t.Fatalf("rows = %d", len(rows))
	}

	first := rows[0]
	if first["id"] != 1 || first["date"] != "2024-01-01" || first["note"] != "note_1" {
		t.Errorf("first row = %v", first)
	}
	amount := first["amount"].(float64)
	if amount < 10 || amount > 1000 {
		t.Errorf("amount = %v", amount)
	}
	quantity := first["quantity"].(int)
	if quantity < 1 || quantity > 100 {
		t.Errorf("quantity = %v", quantity)
	}
	kind := first["type"].(string)
	if kind != "A" && kind != "B" && kind != "C" && kind != "D" {
		t.Errorf("type = %q", kind)
	}
	if rows[4]["id"] != 5 || rows[4]["date"] != "2024-01-05" {
		t.Errorf("last row = %v", rows[4])
	}
}

func TestGenerateReportSeeded(t *testing.T) {
	cols := []string{"id", "value", "category"}
	a := GenerateReport(20, cols, 7)
	b := GenerateReport(20, cols, 7)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different data")
	}
	c := GenerateReport(20, cols, 8)
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical data")
	}
}

func TestRandomDatasetShape(t *testing.T) {
	rows := RandomDataset(4, 3)
	if len(rows) != 4 {
		t.Fatalf("rows = %d", len(rows))
	}
	for _, row := range rows {
		if len(row) != 3 {
			t.Fatalf("row = %v", row)
		}
		for j := 0; j < 3; j++ {
			v, ok := row[fmt.Sprintf("col_%d", j)].(float64)
			if !ok || v < 0 || v >= 1 {
				t.Errorf("col_%d = %v", j, row[fmt.Sprintf("col_%d", j)])
			}
		}
	}

	if got := RandomDataset(-1, 3); len(got) != 0 {
		t.Errorf("negative rows = %v", got)
	}
}

func TestSampleRowsDeterministic(t *testing.T) {
	a, b := SampleRows(), SampleRows()
	if len(a) != 100 {
		t.Fatalf("rows = %d, want 100", len(a))
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("sample dataset is not reproducible")
	}
	row := a[0]
	q := row["quantity"].(int)
	price := row["unit_price"].(float64)
	if row["revenue"].(float64) != round2(float64(q)*price) {
		t.Errorf("revenue inconsistent: %v", row)
	}
}
