package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kwv/tudogesture/cloud"
)

// maxBodyBytes caps gesture request bodies.
const maxBodyBytes = 4 << 20

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(registry *cloud.Registry, minScore float64) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		opts := registry.Options()
		status := struct {
			Status    string        `json:"status"`
			Timestamp time.Time     `json:"timestamp"`
			Templates int           `json:"templates"`
			Variant   cloud.Variant `json:"variant"`
			NumPoints int           `json:"numPoints"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Templates: registry.Len(),
			Variant:   opts.Variant,
			NumPoints: opts.NumPoints,
		}
		writeJSON(w, http.StatusOK, status)
	})

	mux.HandleFunc("GET /templates", func(w http.ResponseWriter, r *http.Request) {
		labels := registry.Labels()
		if labels == nil {
			labels = []cloud.LabelCount{}
		}
		writeJSON(w, http.StatusOK, labels)
	})

	mux.HandleFunc("POST /templates", func(w http.ResponseWriter, r *http.Request) {
		p, err := decodeBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if p.Label == "" {
			http.Error(w, "label is required", http.StatusBadRequest)
			return
		}

		count, err := registry.Learn(p.Label, p.Points)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Printf("[HTTP] learned %q (%d templates)", p.Label, count)
		writeJSON(w, http.StatusCreated, cloud.LabelCount{Label: p.Label, Count: count})
	})

	// Rendered template: /templates/3.svg or /templates/3.png
	mux.HandleFunc("GET /templates/{file}", func(w http.ResponseWriter, r *http.Request) {
		name, ext, ok := strings.Cut(r.PathValue("file"), ".")
		index, err := strconv.Atoi(name)
		if !ok || err != nil {
			http.Error(w, "expected /templates/{index}.svg or .png", http.StatusNotFound)
			return
		}
		t, found := registry.Template(index)
		if !found {
			http.Error(w, "No such template", http.StatusNotFound)
			return
		}

		renderer := cloud.NewCloudRenderer(t)
		w.Header().Set("Cache-Control", "no-cache")
		switch ext {
		case "svg":
			w.Header().Set("Content-Type", "image/svg+xml")
			err = renderer.RenderToSVG(w)
		case "png":
			w.Header().Set("Content-Type", "image/png")
			err = renderer.RenderToPNG(w)
		default:
			http.Error(w, "unsupported format "+ext, http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("Error rendering template %d: %v", index, err)
		}
	})

	mux.HandleFunc("POST /recognize", func(w http.ResponseWriter, r *http.Request) {
		p, err := decodeBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		res, err := registry.Recognize(ctx, p.Points)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cloud.NewRecognitionMessage(id, res, minScore))
	})

	mux.HandleFunc("GET /last", func(w http.ResponseWriter, r *http.Request) {
		res, ok := registry.Last()
		if !ok {
			http.Error(w, "No recognition yet", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	return mux
}

func decodeBody(r *http.Request) (*cloud.GesturePayload, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return cloud.DecodeGesturePayload(data)
}

// writeError maps invalid samples to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cloud.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		log.Printf("Warning: request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
