package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/config"
	"github.com/kestrel-data/docreader/internal/ingest"
	"github.com/kestrel-data/docreader/internal/parser/formats"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	log := zap.NewNop()
	dispatcher := formats.NewDispatcher(log, nil, nil, nil, nil)
	service := ingest.NewService(log, dispatcher, config.DefaultChunkingConfig(), nil, nil)
	return NewHandler(log, service)
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestParseFileReturnsChunks(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h, "/v1/parse/file", fileRequestDTO{
		FileName:    "notes.txt",
		FileContent: []byte("first paragraph\n\nsecond paragraph"),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp responseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("response error = %q, want empty", resp.Error)
	}
	if len(resp.Chunks) == 0 {
		t.Fatal("response carries no chunks")
	}
	if resp.Chunks[0].Seq != 0 || resp.Chunks[0].Start != 0 {
		t.Errorf("chunk 0 = %+v, want seq=0 start=0", resp.Chunks[0])
	}
}

func TestParseFileInfersKindFromFileName(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h, "/v1/parse/file", fileRequestDTO{
		FileName:    "table.csv",
		FileContent: []byte("a,b\n1,2\n3,4\n"),
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp responseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2 per-row chunks", len(resp.Chunks))
	}
	if resp.Chunks[0].Content != "a: 1, b: 2\n" || resp.Chunks[1].Start != 11 {
		t.Errorf("chunks = %+v, want the golden CSV rendering", resp.Chunks)
	}
}

func TestParseFileUnsupportedKind(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h, "/v1/parse/file", fileRequestDTO{
		FileName:    "binary.exe",
		FileContent: []byte{0x4d, 0x5a},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 for an unsupported kind", rec.Code)
	}
	var resp responseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error == "" {
		t.Error("response error is empty, want the unsupported-kind diagnostic")
	}
}

func TestParseFileRejectsInvalidChunkingConfig(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h, "/v1/parse/file", fileRequestDTO{
		FileName:    "notes.txt",
		FileContent: []byte("text"),
		ReadConfig:  readConfigDTO{ChunkSize: 10, ChunkOverlap: 10},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for chunk_overlap >= chunk_size", rec.Code)
	}
}

func TestParseFileMalformedBody(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/parse/file", bytes.NewReader([]byte("{not json")))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a malformed body", rec.Code)
	}
}

func TestParseFileMethodNotAllowed(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/parse/file", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestResponseSanitizesInvalidUTF8(t *testing.T) {
	out := toResponseDTO(ingest.Result{Chunks: []ingest.ChunkResult{
		{Content: "ok\xffbad", Seq: 0, Start: 0, End: 5},
	}})
	if out.Chunks[0].Content != "ok�bad" {
		t.Errorf("Content = %q, want invalid bytes replaced with U+FFFD", out.Chunks[0].Content)
	}
}
