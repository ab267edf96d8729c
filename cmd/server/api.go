package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/ratelimit"
	"token-launchpad/internal/storage"
)

// api serves listings and launch submissions.
type api struct {
	records  storage.RecordStore
	launches *launchRegistry
	limiter  *ratelimit.KeyLimiter
	logger   logrus.FieldLogger

	maxUploadBytes int64
	started        time.Time

	mu       sync.Mutex
	requests int64
}

func (a *api) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("GET /status", a.handleStatus)

	// Listings
	mux.HandleFunc("GET /tokens", a.handleListTokens)
	mux.HandleFunc("GET /tokens/{address}", a.handleGetToken)
	mux.HandleFunc("GET /creators/{address}/tokens", a.handleCreatorTokens)

	// Launches
	mux.Handle("POST /launches", a.limiter.Middleware(ratelimit.ClientKey, http.HandlerFunc(a.handleCreateLaunch)))
	mux.HandleFunc("GET /launches/{id}", a.handleGetLaunch)
	mux.HandleFunc("DELETE /launches/{id}", a.handleCancelLaunch)

	return a.count(mux)
}

func (a *api) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests++
		a.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status   string         `json:"status"`
	Uptime   string         `json:"uptime"`
	Started  time.Time      `json:"started"`
	Requests int64          `json:"requests"`
	Launches map[string]int `json:"launches"`
}

// handleStatus returns server status as JSON.
func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	requests := a.requests
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:   "running",
		Uptime:   time.Since(a.started).Truncate(time.Second).String(),
		Started:  a.started,
		Requests: requests,
		Launches: a.launches.Counts(),
	})
}

func (a *api) handleListTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	order := domain.SortByMarketCap
	if s := q.Get("sort"); s != "" {
		order = domain.ListingSort(s)
		if !order.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown sort %q, use marketCap or new", s))
			return
		}
	}

	limit := domain.DefaultListingLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = storage.NormalizeLimit(n)
	}

	records, err := a.records.ListActive(r.Context(), order, limit)
	if err != nil {
		a.internalError(w, "list tokens", err)
		return
	}
	writeJSON(w, http.StatusOK, newRecordViews(records))
}

func (a *api) handleGetToken(w http.ResponseWriter, r *http.Request) {
	rec, err := a.records.GetByAddress(r.Context(), r.PathValue("address"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "token not found")
		return
	}
	if err != nil {
		a.internalError(w, "get token", err)
		return
	}
	writeJSON(w, http.StatusOK, newRecordView(rec))
}

func (a *api) handleCreatorTokens(w http.ResponseWriter, r *http.Request) {
	records, err := a.records.GetByCreator(r.Context(), r.PathValue("address"))
	if err != nil {
		a.internalError(w, "creator tokens", err)
		return
	}
	writeJSON(w, http.StatusOK, newRecordViews(records))
}

// launchAccepted is the 202 body of POST /launches.
type launchAccepted struct {
	AttemptID string `json:"attemptId"`
	Location  string `json:"location"`
}

// handleCreateLaunch accepts a multipart form with the fields name, ticker,
// description, twitter, website, telegram, initialLiquidity and the file image.
// The attempt runs in the background.
func (a *api) handleCreateLaunch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes)
	if err := r.ParseMultipartForm(a.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := parseLaunchForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := launch.ValidateRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := a.launches.Start(req)
	a.logger.WithFields(logrus.Fields{"attempt_id": id, "ticker": req.Ticker}).Info("launch accepted")

	w.Header().Set("Location", "/launches/"+id)
	writeJSON(w, http.StatusAccepted, launchAccepted{AttemptID: id, Location: "/launches/" + id})
}

func parseLaunchForm(r *http.Request) (*domain.LaunchRequest, error) {
	field := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }

	req := &domain.LaunchRequest{
		Name:        field("name"),
		Ticker:      field("ticker"),
		Description: field("description"),
		Links: domain.Links{
			X:        field("twitter"),
			Website:  field("website"),
			Telegram: field("telegram"),
		},
	}

	amount, err := launch.ParseLiquidity(field("initialLiquidity"))
	if err != nil {
		return nil, err
	}
	req.InitialLiquidity = amount

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("%w: image is required", launch.ErrValidation)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	req.Image = domain.Image{Data: data, ContentType: contentType}
	return req, nil
}

func (a *api) handleGetLaunch(w http.ResponseWriter, r *http.Request) {
	state, err := a.launches.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleCancelLaunch requests cancellation. The final outcome is reported by
// GET /launches/{id}; once signing started the attempt runs to completion.
func (a *api) handleCancelLaunch(w http.ResponseWriter, r *http.Request) {
	err := a.launches.Cancel(r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
	case errors.Is(err, errUnknownLaunch):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusConflict, err.Error())
	}
}

func (a *api) internalError(w http.ResponseWriter, op string, err error) {
	a.logger.WithError(err).Error(op)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
