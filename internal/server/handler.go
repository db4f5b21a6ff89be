package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/ingest"
	"github.com/kestrel-data/docreader/internal/logger"
	"github.com/kestrel-data/docreader/internal/middleware"
	"github.com/kestrel-data/docreader/internal/parser/formats"
)

// Handler serves the file-upload and URL-ingestion requests against a single
// ingest.Service instance.
type Handler struct {
	log     *zap.Logger
	service *ingest.Service
}

// NewHandler builds the routed mux serving /v1/parse/file and /v1/parse/url.
func NewHandler(log *zap.Logger, service *ingest.Service) http.Handler {
	h := &Handler{log: log, service: service}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/parse/file", h.parseFile)
	mux.HandleFunc("/v1/parse/url", h.parseURL)
	return mux
}

func (h *Handler) parseFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req fileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, responseDTO{Error: "malformed request body"})
		return
	}

	res, err := h.service.ParseFile(r.Context(), ingest.FileRequest{
		FileName:    req.FileName,
		FileType:    req.FileType,
		FileContent: req.FileContent,
		ReadConfig:  req.ReadConfig.toIngestConfig(),
		RequestID:   requestID(r, req.RequestID),
	})
	h.respond(w, r, res, err)
}

func (h *Handler) parseURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req urlRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, responseDTO{Error: "malformed request body"})
		return
	}

	res, err := h.service.ParseURL(r.Context(), ingest.URLRequest{
		URL:        req.URL,
		Title:      req.Title,
		ReadConfig: req.ReadConfig.toIngestConfig(),
		RequestID:  requestID(r, req.RequestID),
	})
	h.respond(w, r, res, err)
}

// respond maps the error categories allowed to surface onto HTTP
// status codes; every other failure was already absorbed inside Service.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res ingest.Result, err error) {
	if err != nil {
		var unsupported *formats.UnsupportedKind
		if errors.As(err, &unsupported) {
			writeJSON(w, http.StatusUnprocessableEntity, toResponseDTO(res))
			return
		}
		h.log.Error("server: parse failed",
			zap.Error(err), logger.RequestIDField(r.Context()))
		writeJSON(w, http.StatusBadRequest, responseDTO{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toResponseDTO(res))
}

func requestID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return middleware.RequestID(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
