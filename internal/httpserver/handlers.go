package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timokae/ma-node/internal/appstate"
	"github.com/timokae/ma-node/internal/httpclient"
	"github.com/timokae/ma-node/internal/logger"
	"github.com/timokae/ma-node/internal/wire"
)

type handlers struct {
	state  *appstate.AppState
	client *httpclient.Client
}

// ping is the health probe.
func (h *handlers) ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// download serves raw bytes for a locally-held hash.
func (h *handlers) download(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	entry, ok := h.state.Files.Get(hash)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	data, err := h.state.Files.Read(r.Context(), hash)
	if err != nil {
		logger.ErrorCtx(r.Context(), "download: failed to read file", logger.KeyHash, hash, logger.KeyError, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", entry.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(":attachment; filename=%s", entry.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)

	h.state.Metrics.RecordDownload(len(data))
}

// lookup serves the inline download payload when held locally, otherwise
// delegates to the node's own monitor.
func (h *handlers) lookup(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")

	entry, ok := h.state.Files.Get(hash)
	if ok {
		data, err := h.state.Files.Read(r.Context(), hash)
		if err != nil {
			logger.ErrorCtx(r.Context(), "lookup: failed to read file", logger.KeyHash, hash, logger.KeyError, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, wire.DownloadPayload{
			Hash:        hash,
			Content:     data,
			ContentType: entry.ContentType,
			FileName:    entry.FileName,
		})
		return
	}

	own := h.state.Config.OwnMonitor()
	resp, err := h.client.Lookup(r.Context(), own.Addr, hash, true)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// upload accepts a multipart upload and stores each `upload[data]` part.
func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	managerAddr := h.state.Config.ManagerAddr()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Redirect(w, r, managerAddr+"?status=error", http.StatusFound)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["upload[data]"]
	if len(files) == 0 {
		http.Redirect(w, r, managerAddr+"?status=error", http.StatusFound)
		return
	}

	var lastHash string
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			logger.ErrorCtx(r.Context(), "upload: failed to open part", logger.KeyError, err)
			continue
		}

		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			logger.ErrorCtx(r.Context(), "upload: failed to read part", logger.KeyError, err)
			continue
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fileName := fh.Filename
		if fileName == "" {
			fileName = "unknown"
		}

		hash, err := h.state.AddNewFile(r.Context(), data, contentType, fileName, true)
		if err != nil {
			logger.ErrorCtx(r.Context(), "upload: failed to store file", logger.KeyFilename, fileName, logger.KeyError, err)
			continue
		}
		h.state.Metrics.RecordUpload(len(data))
		lastHash = hash
	}

	if lastHash == "" {
		http.Redirect(w, r, managerAddr+"?status=error", http.StatusFound)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("%s?status=success&hash=%s", managerAddr, lastHash), http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
