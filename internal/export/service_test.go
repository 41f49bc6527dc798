package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
)

var fixedTime = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewService(dir, nil)
	s.now = func() time.Time { return fixedTime }
	return s, dir
}

const tabular = `[{"region":"North","revenue":100},{"region":"South","revenue":90}]`

func TestWriteJSON(t *testing.T) {
	s, dir := newTestService(t)

	name, err := s.Write("report", json.RawMessage(`{"a":1}`), "json")
	if err != nil {
		t.Fatal(err)
	}
	if name != "report_2025-03-14_150926.json" {
		t.Errorf("filename = %q", name)
	}

	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["a"] != float64(1) {
		t.Errorf("content = %v", got)
	}
}

func TestWriteDefaultsNameAndFormat(t *testing.T) {
	s, _ := newTestService(t)
	name, err := s.Write("", json.RawMessage(`[]`), "")
	if err != nil {
		t.Fatal(err)
	}
	if name != "export_2025-03-14_150926.json" {
		t.Errorf("filename = %q", name)
	}
}

func TestWriteCSV(t *testing.T) {
	s, dir := newTestService(t)

	name, err := s.Write("sales", json.RawMessage(tabular), "csv")
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(records[0], []string{"region", "revenue"}) {
		t.Errorf("header = %v", records[0])
	}
	if len(records) != 3 || records[1][0] != "North" {
		t.Errorf("records = %v", records)
	}
}

func TestWriteCSVRejectsNonTabular(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Write("x", json.RawMessage(`{"not":"an array"}`), "csv")
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestWriteXLSX(t *testing.T) {
	s, dir := newTestService(t)

	name, err := s.Write("sales", json.RawMessage(tabular), "xlsx")
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Export")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], []string{"region", "revenue"}) {
		t.Errorf("header = %v", rows[0])
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Write("x", json.RawMessage(`[]`), "parquet")
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestTabulateSparseRows(t *testing.T) {
	cols, rows, err := tabulate(json.RawMessage(`[{"a":1},{"b":"x"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cols, []string{"a", "b"}) {
		t.Errorf("columns = %v", cols)
	}
	if rows[0][1] != "" || rows[1][0] != "" {
		t.Errorf("missing cells should be empty: %v", rows)
	}
}
