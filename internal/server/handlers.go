package server

import (
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/shortcut-bridge/internal/analyze"
	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
	"github.com/joseph-ayodele/shortcut-bridge/internal/pipeline"
	"github.com/joseph-ayodele/shortcut-bridge/internal/routing"
)

const maxUploadBytes = 64 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Shortcut Bridge",
		"version": version,
		"status":  "running",
		"time":    s.now().Format(time.RFC3339),
		"endpoints": map[string]string{
			"GET /":                   "This info",
			"GET /data/<path>":        "Fetch static files",
			"GET /api/status":         "Server status and file listing",
			"POST /api/process":       "Process a file from inbox",
			"POST /api/export":        "Receive data and save locally",
			"GET /api/data":           "Filtered sample dataset",
			"POST /api/echo":          "Echo a JSON body",
			"POST /api/upload":        "Multipart file upload into inbox",
			"POST /api/upload-base64": "Base64 file upload into inbox",
			"GET /api/error":          "Deliberate error response",
			"GET /api/slow":           "Delayed response for timeout testing",
			"POST /api/analyze":       "Aggregate a dataset",
			"POST /api/bulk":          "Large payload validation",
			"POST /api/generate":      "Generate a dataset on demand",
		},
	})
}

type fileInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Modified  string `json:"modified"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	files := map[string]any{
		"samples":       listFiles(s.deps.Paths.SamplesDir),
		"generated":     listFiles(s.deps.Paths.GeneratedDir),
		"exports":       listFiles(s.deps.Paths.ExportsDir),
		"inbox":         listFiles(s.deps.Paths.InboxDir),
		"inbox_subdirs": listSubdirs(s.deps.Paths.InboxDir),
	}
	body := payload{
		"server_time": s.now().Format(time.RFC3339),
		"files":       files,
	}
	if s.deps.Jobs != nil {
		jobs, err := s.deps.Jobs.Recent(r.Context(), 20)
		if err != nil {
			s.logger.Warn("status.jobs_failed", "error", err)
		} else {
			recent := make([]map[string]any, 0, len(jobs))
			for _, j := range jobs {
				entry := map[string]any{
					"id":         j.ID.String(),
					"input_file": j.InputFile,
					"category":   string(j.Category),
					"mode":       j.Mode,
					"status":     string(j.Status),
					"created_at": j.CreatedAt.Format(time.RFC3339),
				}
				if j.OutputFile != "" {
					entry["output_file"] = j.OutputFile
					entry["processor"] = j.Processor
					entry["runtime_ms"] = j.RuntimeMS
				}
				if j.ErrorMessage != "" {
					entry["error_message"] = j.ErrorMessage
				}
				recent = append(recent, entry)
			}
			body["recent_jobs"] = recent
		}
	}
	writeOK(w, body)
}

func listFiles(dir string) []fileInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []fileInfo{}
	}
	out := make([]fileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, fileInfo{
			Name:      e.Name(),
			SizeBytes: info.Size(),
			Modified:  info.ModTime().Format(time.RFC3339),
		})
	}
	return out
}

func listSubdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}
	}
	out := []string{}
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

type processRequest struct {
	File               string     `json:"file"`
	OCRMode            string     `json:"ocr_mode"`
	UseAI              *looseBool `json:"use_ai"`
	Pages              pageList   `json:"pages"`
	TableFormat        string     `json:"table_format"`
	OutputFormat       string     `json:"output_format"`
	ExtractHeader      looseBool  `json:"extract_header"`
	ExtractFooter      looseBool  `json:"extract_footer"`
	IncludeImageBase64 looseBool  `json:"include_image_base64"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode, err := routing.ParseMode(req.OCRMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// legacy hint: an explicit use_ai without an ocr_mode still steers routing
	if req.OCRMode == "" && req.UseAI != nil {
		if bool(*req.UseAI) {
			mode = routing.ModeForceRemote
		} else {
			mode = routing.ModeForceLocal
		}
	}

	res, err := s.deps.Processor.Process(r.Context(), pipeline.Request{
		File:               req.File,
		Mode:               mode,
		Pages:              req.Pages,
		TableFormat:        req.TableFormat,
		OutputFormat:       req.OutputFormat,
		ExtractHeader:      bool(req.ExtractHeader),
		ExtractFooter:      bool(req.ExtractFooter),
		IncludeImageBase64: bool(req.IncludeImageBase64),
	})
	if err != nil {
		writeError(w, common.HTTPStatus(err), err.Error())
		return
	}

	writeOK(w, payload{
		"input_file":  req.File,
		"output_file": res.OutputFile,
		"output_path": "/data/generated/" + res.OutputFile,
		"processor":   res.Processor,
	})
}

type exportRequest struct {
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
	Format string          `json:"format"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Data) == 0 || string(req.Data) == "null" {
		writeError(w, http.StatusBadRequest, "Missing 'data' parameter")
		return
	}

	filename, err := s.deps.Exporter.Write(req.Name, req.Data, req.Format)
	if err != nil {
		writeError(w, common.HTTPStatus(err), err.Error())
		return
	}
	writeOK(w, payload{
		"saved_to":  filename,
		"full_path": "/data/exports/" + filename,
	})
}

// handleData serves a filtered slice of the sample sales dataset.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = n
	}

	path := filepath.Join(s.deps.Paths.SamplesDir, "sales_transactions.csv")
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "Sample data not found")
		return
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil || len(records) == 0 {
		writeError(w, http.StatusInternalServerError, "read sample data failed")
		return
	}

	columns := records[0]
	regionIdx := -1
	for i, col := range columns {
		if col == "region" {
			regionIdx = i
			break
		}
	}

	rows := make([]map[string]string, 0, limit)
	for _, rec := range records[1:] {
		if filter != "" {
			if regionIdx < 0 || regionIdx >= len(rec) ||
				!strings.Contains(strings.ToLower(rec[regionIdx]), strings.ToLower(filter)) {
				continue
			}
		}
		if len(rows) >= limit {
			break
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}

	var filterApplied any
	if filter != "" {
		filterApplied = filter
	}
	writeOK(w, payload{
		"filter_applied": filterApplied,
		"limit":          limit,
		"row_count":      len(rows),
		"columns":        columns,
		"data":           rows,
	})
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}
	var data any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	writeOK(w, payload{
		"received_at":     s.now().Format(time.RFC3339),
		"content_type":    r.Header.Get("Content-Type"),
		"data_size_bytes": len(body),
		"echo":            data,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "No file in request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file in request")
		return
	}
	defer file.Close()

	name := filepath.Base(filepath.Clean(header.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "Empty filename")
		return
	}

	savePath := filepath.Join(s.deps.Paths.InboxDir, name)
	out, err := os.Create(savePath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save upload: %v", err))
		return
	}
	defer out.Close()
	n, err := io.Copy(out, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save upload: %v", err))
		return
	}

	writeOK(w, payload{
		"filename":     name,
		"saved_to":     savePath,
		"size_bytes":   n,
		"content_type": header.Header.Get("Content-Type"),
	})
}

type uploadBase64Request struct {
	Filename      string `json:"filename"`
	ContentBase64 string `json:"content_base64"`
}

func (s *Server) handleUploadBase64(w http.ResponseWriter, r *http.Request) {
	var req uploadBase64Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "Missing 'filename'")
		return
	}
	if req.ContentBase64 == "" {
		writeError(w, http.StatusBadRequest, "Missing 'content_base64'")
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid base64: %v", err))
		return
	}

	name := filepath.Base(filepath.Clean(req.Filename))
	savePath := filepath.Join(s.deps.Paths.InboxDir, name)
	if err := os.WriteFile(savePath, content, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save upload: %v", err))
		return
	}

	writeOK(w, payload{
		"filename":   name,
		"saved_to":   savePath,
		"size_bytes": len(content),
	})
}

// handleError returns a deliberate 500 so callers can exercise their error
// handling.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"status":     "error",
		"message":    "Intentional server error for testing",
		"error_code": http.StatusInternalServerError,
		"timestamp":  s.now().Format(time.RFC3339),
	})
}

// handleSlow waits the requested number of seconds (capped at 60) before
// answering, so callers can exercise their timeout handling.
func (s *Server) handleSlow(w http.ResponseWriter, r *http.Request) {
	seconds := 5
	if v := r.URL.Query().Get("seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid 'seconds' parameter")
			return
		}
		seconds = n
	}
	if seconds > 60 {
		seconds = 60
	}

	started := s.now()
	if err := s.sleep(r.Context(), time.Duration(seconds)*time.Second); err != nil {
		// caller gave up; nothing useful left to send
		return
	}
	completed := s.now()

	writeOK(w, payload{
		"requested_delay": seconds,
		"started_at":      started.Format(time.RFC3339),
		"completed_at":    completed.Format(time.RFC3339),
		"elapsed_seconds": math.Round(completed.Sub(started).Seconds()*1000) / 1000,
	})
}

type generateRequest struct {
	Operation string `json:"operation"`
	Params    struct {
		Rows    *int     `json:"rows"`
		Columns []string `json:"columns"`
		Seed    *int64   `json:"seed"`
		Cols    *int     `json:"cols"`
	} `json:"params"`
}

// handleGenerate builds a dataset on demand, no pre-existing file needed.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Operation {
	case "":
		writeError(w, http.StatusBadRequest, "Missing 'operation'")

	case "generate_report":
		rows := 100
		if req.Params.Rows != nil {
			rows = *req.Params.Rows
		}
		columns := req.Params.Columns
		if len(columns) == 0 {
			columns = []string{"id", "date", "value", "category"}
		}
		seed := int64(42)
		if req.Params.Seed != nil {
			seed = *req.Params.Seed
		}
		records := analyze.GenerateReport(rows, columns, seed)
		writeOK(w, payload{
			"operation": req.Operation,
			"row_count": len(records),
			"columns":   columns,
			"data":      records,
		})

	case "random_dataset":
		rows, cols := 50, 5
		if req.Params.Rows != nil {
			rows = *req.Params.Rows
		}
		if req.Params.Cols != nil {
			cols = *req.Params.Cols
		}
		records := analyze.RandomDataset(rows, cols)
		writeOK(w, payload{
			"operation": req.Operation,
			"row_count": len(records),
			"data":      records,
		})

	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":    "error",
			"message":   fmt.Sprintf("Unknown operation: %s", req.Operation),
			"supported": []string{"generate_report", "random_dataset"},
		})
	}
}

type analyzeRequest struct {
	Data         []map[string]any `json:"data"`
	Aggregations []string         `json:"aggregations"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Aggregations) == 0 {
		req.Aggregations = []string{"sum", "mean", "count", "by_region"}
	}
	rows := req.Data
	if len(rows) == 0 {
		rows = analyze.SampleRows()
	}

	res := analyze.Run(rows, req.Aggregations)
	writeOK(w, payload{
		"input_rows":    res.InputRows,
		"input_columns": res.InputColumns,
		"aggregations":  res.Aggregations,
		"sample_data":   res.SampleData,
	})
}

type bulkRequest struct {
	Data     []map[string]any `json:"data"`
	Validate *looseBool       `json:"validate"`
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	validate := true
	if req.Validate != nil {
		validate = bool(*req.Validate)
	}

	rowCount := len(req.Data)
	colCount := 0
	if rowCount > 0 {
		colCount = len(req.Data[0])
	}

	var validation map[string]any
	if validate && rowCount > 0 {
		first := sortedKeys(req.Data[0])
		last := sortedKeys(req.Data[rowCount-1])
		consistent := true
		if rowCount > 1 {
			consistent = equalStrings(first, last)
		}
		validation = map[string]any{
			"first_row_keys":  first,
			"last_row_keys":   last,
			"keys_consistent": consistent,
		}
	}

	writeOK(w, payload{
		"row_count":               rowCount,
		"column_count":            colCount,
		"cell_count":              rowCount * colCount,
		"processing_time_seconds": float64(time.Since(start).Milliseconds()) / 1000,
		"validation":              validation,
		"received_at":             s.now().Format(time.RFC3339),
	})
}

func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return fmt.Errorf("read body failed")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
