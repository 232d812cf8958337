package media

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"airstream/internal/platform/metrics"
)

const (
	msgInfoFailed        = "Failed to fetch video information"
	msgDownloadFailed    = "Failed to download video"
	msgFormatUnavailable = "Selected format is no longer available, fetch the video information again"
	msgBadBody           = "Invalid request body"
)

// maxInfoBodyBytes caps POST /api/info bodies; they only carry a URL.
const maxInfoBodyBytes = 8 << 10

// Handler exposes the Info Service and Download Proxy over HTTP using go-chi.
type Handler struct {
	svc      *Service
	provider string
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewHandler returns a Handler. provider names the video host in the invalid
// URL message ("Invalid YouTube URL"). Metrics may be nil to disable metric
// recording (e.g. in tests).
func NewHandler(svc *Service, provider string, log *slog.Logger, m *metrics.Metrics) *Handler {
	if provider == "" {
		provider = "YouTube"
	}
	return &Handler{svc: svc, provider: provider, log: log, metrics: m}
}

type infoRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetInfo handles GET /api/info?url=... and POST /api/info with body { "url": "..." }.
func (h *Handler) GetInfo(w http.ResponseWriter, r *http.Request) {
	var url string
	switch r.Method {
	case http.MethodGet:
		url = r.URL.Query().Get("url")
	case http.MethodPost:
		var req infoRequest
		body := http.MaxBytesReader(w, r.Body, maxInfoBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			h.log.Debug("invalid info body", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgBadBody})
			return
		}
		url = req.URL
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	info, err := h.svc.FetchInfo(r.Context(), url)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidURL):
			h.log.Info("info rejected invalid url", slog.String("url", url))
			h.recordInfo("invalid_url")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: h.invalidURLMessage()})
		default:
			h.log.Error("fetch info failed", slog.String("url", url), slog.String("error", err.Error()))
			h.recordInfo("extraction_error")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInfoFailed})
		}
		return
	}

	h.log.Debug("info fetched",
		slog.String("url", url),
		slog.String("title", info.Title),
		slog.Int("formats", len(info.Formats)))
	h.recordInfo("ok")
	writeJSON(w, http.StatusOK, info)
}

// Download handles GET /api/download?url=...&itag=...&format=mp3|mp4&title=...
// The body is relayed from upstream without buffering the whole file.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	req := DownloadRequest{
		SourceURL:      q.Get("url"),
		Identifier:     q.Get("itag"),
		Container:      ParseContainerKind(q.Get("format")),
		SuggestedTitle: q.Get("title"),
	}

	dl, err := h.svc.OpenDownload(r.Context(), req)
	if err != nil {
		h.writeDownloadError(w, req, err)
		return
	}
	defer dl.Stream.Body.Close()

	if h.metrics != nil {
		h.metrics.IncActiveDownloads()
		defer h.metrics.DecActiveDownloads()
	}

	started := false
	written, err := relay(r.Context(), w, dl.Stream.Body, func() {
		started = true
		header := w.Header()
		header.Set("Content-Disposition", dl.ContentDisposition())
		header.Set("Content-Type", dl.ContentType)
		if dl.Stream.Size > 0 {
			header.Set("Content-Length", strconv.FormatInt(dl.Stream.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
	})
	if h.metrics != nil {
		h.metrics.AddDownloadBytes(written)
	}

	switch {
	case err == nil:
		h.log.Info("download complete",
			slog.String("url", req.SourceURL),
			slog.String("itag", dl.Stream.Format.Identifier),
			slog.String("filename", dl.Filename),
			slog.Int64("bytes", written))
		h.recordDownload("ok")
	case errors.Is(err, errClientGone):
		h.log.Info("download aborted by client",
			slog.String("url", req.SourceURL),
			slog.Int64("bytes", written),
			slog.String("error", err.Error()))
		h.recordDownload("client_gone")
	case !started:
		h.writeDownloadError(w, req, err)
	default:
		h.log.Error("upstream stream failed mid-transfer",
			slog.String("url", req.SourceURL),
			slog.Int64("bytes", written),
			slog.String("error", err.Error()))
		h.recordDownload("upstream_error")
		// Headers are out; the only signal left is dropping the connection.
		panic(http.ErrAbortHandler)
	}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeDownloadError(w http.ResponseWriter, req DownloadRequest, err error) {
	attrs := []any{
		slog.String("url", req.SourceURL),
		slog.String("itag", req.Identifier),
		slog.String("error", err.Error()),
	}
	switch {
	case errors.Is(err, ErrInvalidURL):
		h.log.Info("download rejected invalid url", attrs...)
		h.recordDownload("invalid_url")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: h.invalidURLMessage()})
	case errors.Is(err, ErrFormatUnavailable):
		h.log.Warn("download format unavailable", attrs...)
		h.recordDownload("format_unavailable")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgFormatUnavailable})
	default:
		h.log.Error("download failed", attrs...)
		h.recordDownload("upstream_error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgDownloadFailed})
	}
}

func (h *Handler) invalidURLMessage() string {
	return "Invalid " + h.provider + " URL"
}

func (h *Handler) recordInfo(outcome string) {
	if h.metrics != nil {
		h.metrics.IncInfoFetches(outcome)
	}
}

func (h *Handler) recordDownload(outcome string) {
	if h.metrics != nil {
		h.metrics.IncDownloads(outcome)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
