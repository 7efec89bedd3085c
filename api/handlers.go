/*
handlers.go - HTTP API handlers for the worker ledger

PURPOSE:
  Exposes the hisab.Book over a REST API. Handles HTTP request/response
  and JSON serialization, and delegates every rule to the book.

ENDPOINTS:
  Workers:
    GET    /api/workers                 Roster with rates
    POST   /api/workers                 Add worker
    DELETE /api/workers/{name}          Remove worker (history is kept)
    POST   /api/workers/{name}/lock     Toggle rate lock
    PUT    /api/workers/{name}/rate     Change rates of an unlocked worker
    GET    /api/rates                   Unified rate list
    GET    /api/selection               Admin worker selection
    PUT    /api/selection               Replace selection

  Accounts:
    GET    /api/accounts                Every account with balance
    GET    /api/accounts/{name}         Worker statement

  Histories ({kind} is boardWork, userWork, nasta or loan):
    GET    /api/histories/{kind}        Entries, newest first
    POST   /api/histories/{kind}        Create entry and apply it
    DELETE /api/histories/{kind}/{id}   Delete entry and reverse it

  Reports:
    GET    /api/reports                 Company reports
    POST   /api/reports                 Record a drawing
    GET    /api/reports/summary         Earned vs drawn
    DELETE /api/reports/{id}            Delete report

  Login:
    POST   /api/login/admin
    POST   /api/login/worker

  Changes:
    GET    /api/revision                Store change counter for polling

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unknown kind
  - 401: Credentials do not match
  - 404: Worker, entry or report not found
  - 409: Worker exists, rate locked
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/warp/smart-hisab/hisab"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Book *hisab.Book
	log  log.FieldLogger

	mu       sync.Mutex
	revision int64
	lastKey  string
}

// NewHandler creates a handler over book and starts counting store writes.
func NewHandler(book *hisab.Book, logger log.FieldLogger) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &Handler{
		Book: book,
		log:  logger.WithField("component", "api"),
	}
	book.Storage().Subscribe(h.recordChange)
	return h
}

func (h *Handler) recordChange(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.revision++
	h.lastKey = key
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns the roster with each worker's rate.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rates := h.Book.LoadWorkerRates(ctx)
	byName := make(map[string]hisab.WorkerRate, len(rates))
	for _, rate := range rates {
		byName[rate.Name] = rate
	}

	workers := h.Book.Workers(ctx)
	dtos := make([]hisab.WorkerRate, 0, len(workers))
	for _, name := range workers {
		rate, ok := byName[name]
		if !ok {
			rate = hisab.WorkerRate{Name: name}
		}
		dtos = append(dtos, rate)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWorker adds a worker to the roster.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if !decode(w, r, &req) {
		return
	}
	rate, err := h.Book.AddWorker(r.Context(), req.Name, req.RateSingle, req.RateDouble)
	if err != nil {
		h.fail(w, "Failed to add worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, rate)
}

// DeleteWorker removes a worker. Their history stays.
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Book.DeleteWorker(r.Context(), name); err != nil {
		h.fail(w, "Failed to delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleLock flips a worker's rate lock.
func (h *Handler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	rate, err := h.Book.ToggleWorkerLock(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.fail(w, "Failed to toggle lock", err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

// SetRate changes a worker's rates.
func (h *Handler) SetRate(w http.ResponseWriter, r *http.Request) {
	var req SetRateRequest
	if !decode(w, r, &req) {
		return
	}
	rate, err := h.Book.SetWorkerRate(r.Context(), chi.URLParam(r, "name"), req.RateSingle, req.RateDouble)
	if err != nil {
		h.fail(w, "Failed to set rate", err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

// ListRates returns the unified rate list.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Book.LoadWorkerRates(r.Context()))
}

// GetSelection returns the admin's selected workers.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Book.SelectedWorkers(r.Context()))
}

// PutSelection replaces the selection. Unknown names are dropped.
func (h *Handler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.Book.SelectWorkers(r.Context(), req.Names))
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns every account sorted by name.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accts := h.Book.Accounts(r.Context())
	names := make([]string, 0, len(accts))
	for name := range accts {
		names = append(names, name)
	}
	sort.Strings(names)

	dtos := make([]AccountDTO, 0, len(names))
	for _, name := range names {
		dtos = append(dtos, toAccountDTO(name, accts[name]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStatement returns one worker's account and the entries naming them.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	st := h.Book.Statement(r.Context(), chi.URLParam(r, "name"))

	lines := make([]StatementLineDTO, len(st.Lines))
	for i, l := range st.Lines {
		lines[i] = StatementLineDTO{Entry: l.Entry, Share: l.Share}
	}
	writeJSON(w, http.StatusOK, StatementDTO{
		AccountDTO: toAccountDTO(st.Name, st.Account),
		Lines:      lines,
	})
}

// =============================================================================
// HISTORY HANDLERS
// =============================================================================

// ListEntries returns one history.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	entries, err := h.Book.Entries(r.Context(), kind)
	if err != nil {
		h.fail(w, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateEntry records an entry in the history named by the path.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	var req CreateEntryRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	var (
		entry hisab.Entry
		err   error
	)
	switch kind {
	case hisab.KindBoardWork:
		entry, err = h.Book.AddBoardWork(ctx, hisab.BoardWorkInput{
			Date:       req.Date,
			Names:      req.Names,
			Single:     req.Single,
			Double:     req.Double,
			RateSingle: req.RateSingle,
			RateDouble: req.RateDouble,
			Note:       req.Note,
		})
	case hisab.KindUserWork:
		entry, err = h.Book.AddUserWork(ctx, hisab.UserWorkInput{
			Date:   req.Date,
			Names:  req.Names,
			Single: req.Single,
			Double: req.Double,
			Note:   req.Note,
		})
	case hisab.KindNasta:
		entry, err = h.Book.AddNasta(ctx, expenseInput(req))
	case hisab.KindLoan:
		entry, err = h.Book.AddLoan(ctx, expenseInput(req))
	}
	if err != nil {
		h.fail(w, "Failed to create entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func expenseInput(req CreateEntryRequest) hisab.ExpenseInput {
	return hisab.ExpenseInput{Date: req.Date, Names: req.Names, Amount: req.Amount, Note: req.Note}
}

// DeleteEntry deletes an entry and reverses its effect.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	removed, err := h.Book.DeleteEntry(r.Context(), kind, id)
	if err != nil {
		h.fail(w, "Failed to delete entry", err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (hisab.Kind, bool) {
	kind, err := hisab.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.fail(w, "Unknown history", err)
		return "", false
	}
	return kind, true
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ListReports returns company reports, newest first.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Book.Reports(r.Context()))
}

// CreateReport records a drawing.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if !decode(w, r, &req) {
		return
	}
	report, err := h.Book.AddReport(r.Context(), hisab.ReportInput{
		Date:   req.Date,
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		h.fail(w, "Failed to add report", err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// DeleteReport removes a report.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Book.DeleteReport(r.Context(), id); err != nil {
		h.fail(w, "Failed to delete report", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSummary returns total earned against total drawn.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s := h.Book.Summary(r.Context())
	writeJSON(w, http.StatusOK, SummaryDTO{
		TotalEarned: s.TotalEarned,
		TotalDrawn:  s.TotalDrawn,
		Remaining:   s.Remaining,
		Reports:     s.Reports,
	})
}

// =============================================================================
// LOGIN HANDLERS
// =============================================================================

// AdminLogin checks the admin credentials.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.Book.ValidateAdmin(r.Context(), req.Identifier, req.Password) {
		h.fail(w, "Login failed", hisab.ErrInvalidCredentials)
		return
	}
	writeJSON(w, http.StatusOK, LoginDTO{Role: "admin"})
}

// WorkerLogin checks a worker login, registering it first when asked.
func (h *Handler) WorkerLogin(w http.ResponseWriter, r *http.Request) {
	var req WorkerLoginRequest
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if req.Register {
		if _, err := h.Book.RegisterUser(ctx, req.Name, req.Mobile, req.Password); err != nil {
			h.fail(w, "Registration failed", err)
			return
		}
	}
	user, err := h.Book.ValidateUser(ctx, req.Name, req.Mobile, req.Password)
	if err != nil {
		h.fail(w, "Login failed", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginDTO{Role: "worker", Name: user.Name})
}

// =============================================================================
// CHANGE HANDLERS
// =============================================================================

// GetRevision returns how many store writes this process has seen.
func (h *Handler) GetRevision(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	dto := RevisionDTO{Revision: h.revision, LastKey: h.lastKey}
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_body", err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", "invalid_id", err)
		return 0, false
	}
	return id, true
}

// fail maps a book error to its status code.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithField("error", err).Error(message)
	}
	writeError(w, status, message, code, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, hisab.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, hisab.ErrWorkerExists):
		return http.StatusConflict, "exists"
	case errors.Is(err, hisab.ErrRateLocked):
		return http.StatusConflict, "locked"
	case errors.Is(err, hisab.ErrUnknownKind):
		return http.StatusBadRequest, "unknown_kind"
	case hisab.IsClientError(err):
		return http.StatusBadRequest, "validation"
	case hisab.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
