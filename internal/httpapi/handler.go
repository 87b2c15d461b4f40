// Package httpapi exposes the balancer operations over http
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hextechpal/streambalancer"
	"github.com/rs/zerolog"
)

// Service is implemented by *streambalancer.Balancer
type Service interface {
	Rebalance(ctx context.Context) (*streambalancer.Result, error)
	LastReport(ctx context.Context) (*streambalancer.Report, error)
	InitializeGroup(ctx context.Context) (streambalancer.InitOutcome, error)
	Publish(ctx context.Context, message string) (string, error)
}

type handler struct {
	svc    Service
	logger *zerolog.Logger
}

// NewHandler routes the rebalance, troubleshoot and test endpoints. metrics is mounted on /metrics when not nil.
func NewHandler(svc Service, logger *zerolog.Logger, metrics http.Handler) http.Handler {
	h := &handler{svc: svc, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/rebalance", only(http.MethodGet, h.rebalance))
	mux.HandleFunc("/rebalance/last", only(http.MethodGet, h.lastReport))
	mux.HandleFunc("/troubleshoot/initialize-stream", only(http.MethodPost, h.initializeStream))
	mux.HandleFunc("/test", only(http.MethodGet, h.publish))
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}

func only(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next(w, r)
	}
}

func (h *handler) rebalance(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Rebalance(r.Context())
	if errors.Is(err, streambalancer.ErrRebalanceInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Rebalance request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) lastReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.LastReport(r.Context())
	if errors.Is(err, streambalancer.ErrNoReport) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handler) initializeStream(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.svc.InitializeGroup(r.Context())
	switch {
	case err != nil || outcome == streambalancer.UnknownError:
		h.logger.Info().Err(err).Msg("An error occurred while creating consumer group")
		writeError(w, http.StatusInternalServerError, "Unknown error")
	case outcome == streambalancer.AlreadyExists:
		w.Header().Set("X-Reason", "Already exists")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("OK"))
	}
}

func (h *handler) publish(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.Publish(r.Context(), r.URL.Query().Get("message"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
