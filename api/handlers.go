/*
handlers.go - HTTP API handlers for the scoring and ledger engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response and JSON
  serialization, delegates everything else to the domain services. The
  engine performs no authorization; the surrounding application supplies
  an already-authorized caller.

ERROR HANDLING:
  Domain error kinds map onto HTTP statuses:
  - InvalidInput      400
  - NotFound          404
  - Conflict          409
  - everything else   500 (TransactionFailure is retryable by the caller)

SEE ALSO:
  - dto.go: request/response structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
	"github.com/yazanabukhait2007-sudo/al-durra-management/evaluation"
	"github.com/yazanabukhait2007-sudo/al-durra-management/payroll"
	"github.com/yazanabukhait2007-sudo/al-durra-management/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Evaluations *evaluation.Service
	Aggregator  *evaluation.Aggregator
	Migrator    *evaluation.Migrator
	Reconciler  *payroll.Reconciler
	Statement   *payroll.Statement
	Log         *logrus.Logger
}

// NewHandler wires the domain services over one store.
func NewHandler(store *sqlite.Store, log *logrus.Logger) *Handler {
	evalStore := store.Evaluations()
	payStore := store.Payroll()
	return &Handler{
		Store:       store,
		Evaluations: evaluation.NewService(evalStore),
		Aggregator:  evaluation.NewAggregator(evalStore),
		Migrator:    evaluation.NewMigrator(evalStore),
		Reconciler:  payroll.NewReconciler(payStore),
		Statement:   payroll.NewStatement(payStore),
		Log:         log,
	}
}

// =============================================================================
// WORKER CATALOG
// =============================================================================

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list workers", err)
		return
	}
	dtos := make([]WorkerDTO, len(workers))
	for i, worker := range workers {
		dtos[i] = workerDTO(worker)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	worker := engine.Worker{ID: uuid.NewString(), Name: req.Name}
	if req.Salary != nil {
		s := decimalFromFloat(*req.Salary)
		if s.IsNegative() {
			writeError(w, http.StatusBadRequest, "Salary must be non-negative", nil)
			return
		}
		worker.Salary = &s
	}
	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		writeDomainError(w, "Failed to create worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, workerDTO(worker))
}

func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	worker := engine.Worker{ID: id, Name: req.Name}
	if req.Salary != nil {
		s := decimalFromFloat(*req.Salary)
		if s.IsNegative() {
			writeError(w, http.StatusBadRequest, "Salary must be non-negative", nil)
			return
		}
		worker.Salary = &s
	}
	if err := h.Store.UpdateWorker(r.Context(), worker); err != nil {
		writeDomainError(w, "Failed to update worker", err)
		return
	}
	writeJSON(w, http.StatusOK, workerDTO(worker))
}

func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteWorker(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete worker", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// =============================================================================
// TASK CATALOG
// =============================================================================

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Store.ListTasks(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list tasks", err)
		return
	}
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = TaskDTO{ID: t.ID, Name: t.Name, TargetQuantity: t.TargetQuantity}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	task := engine.Task{ID: uuid.NewString(), Name: req.Name, TargetQuantity: req.TargetQuantity}
	if err := h.Store.SaveTask(r.Context(), task); err != nil {
		writeDomainError(w, "Failed to create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, TaskDTO{ID: task.ID, Name: task.Name, TargetQuantity: task.TargetQuantity})
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteTask(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// =============================================================================
// EVALUATIONS
// =============================================================================

func (h *Handler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	var req CreateEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := engine.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, "Invalid date", err)
		return
	}

	entries := make([]evaluation.EntryInput, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = evaluation.EntryInput{TaskID: e.TaskID, Quantity: e.Quantity}
	}

	id, total, err := h.Evaluations.Create(r.Context(), req.WorkerID, date, entries)
	if err != nil {
		writeDomainError(w, "Failed to save evaluation", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateEvaluationResponse{
		EvaluationID: id,
		DailyScore:   total.InexactFloat64(),
	})
}

func (h *Handler) UpdateEvaluation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entries := make([]evaluation.EntryInput, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = evaluation.EntryInput{TaskID: e.TaskID, Quantity: e.Quantity}
	}

	total, err := h.Evaluations.Replace(r.Context(), id, entries)
	if err != nil {
		writeDomainError(w, "Failed to update evaluation", err)
		return
	}
	writeJSON(w, http.StatusOK, CreateEvaluationResponse{
		EvaluationID: id,
		DailyScore:   total.InexactFloat64(),
	})
}

func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Evaluations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get evaluation", err)
		return
	}

	dto := EvaluationDetailDTO{EvaluationDTO: evaluationDTO(detail.DailyEvaluation)}
	dto.Entries = make([]TaskEntryDTO, len(detail.Entries))
	for i, e := range detail.Entries {
		dto.Entries[i] = entryDTO(e)
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeDomainError(w, "Invalid month", err)
		return
	}

	evals, err := h.Evaluations.ListByMonth(r.Context(), month, r.URL.Query().Get("worker_id"))
	if err != nil {
		writeDomainError(w, "Failed to list evaluations", err)
		return
	}
	dtos := make([]EvaluationDTO, len(evals))
	for i, ev := range evals {
		dtos[i] = evaluationDTO(ev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DeleteEvaluation(w http.ResponseWriter, r *http.Request) {
	if err := h.Evaluations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete evaluation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// =============================================================================
// REPORTS
// =============================================================================

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeDomainError(w, "Month is required (YYYY-MM)", err)
		return
	}

	rows, err := h.Aggregator.MonthlyReport(r.Context(), month)
	if err != nil {
		writeDomainError(w, "Failed to build report", err)
		return
	}
	dtos := make([]MonthlyReportRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = reportRowDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ATTENDANCE + LEDGER
// =============================================================================

func (h *Handler) UpsertAttendance(w http.ResponseWriter, r *http.Request) {
	var req UpsertAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := engine.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, "Invalid date", err)
		return
	}

	rec, err := h.Reconciler.UpsertAttendance(r.Context(), req.WorkerID, date,
		payroll.AttendanceStatus(req.Status), req.CheckIn, req.CheckOut, req.Notes)
	if err != nil {
		writeDomainError(w, "Failed to save attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceDTO(*rec))
}

func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	date, err := engine.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeDomainError(w, "Date is required (YYYY-MM-DD)", err)
		return
	}

	records, err := h.Store.Payroll().ListAttendanceByDate(r.Context(), date)
	if err != nil {
		writeDomainError(w, "Failed to list attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceDTOs(records))
}

func (h *Handler) AttendanceSheet(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeDomainError(w, "Month is required (YYYY-MM)", err)
		return
	}

	records, err := h.Store.Payroll().ListAttendanceByMonth(r.Context(), month)
	if err != nil {
		writeDomainError(w, "Failed to list attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceDTOs(records))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeDomainError(w, "Month is required (YYYY-MM)", err)
		return
	}

	txs, err := h.Statement.Transactions(r.Context(), chi.URLParam(r, "id"), month)
	if err != nil {
		writeDomainError(w, "Failed to list transactions", err)
		return
	}
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = transactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req AddTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := engine.ParseDay(req.Date)
	if err != nil {
		writeDomainError(w, "Invalid date", err)
		return
	}

	tx, err := h.Statement.AddTransaction(r.Context(), chi.URLParam(r, "id"),
		payroll.TransactionType(req.Type), decimal.NewFromFloat(req.Amount), date, req.Description)
	if err != nil {
		writeDomainError(w, "Failed to add transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionDTO(*tx))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Statement.RemoveTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	month, err := engine.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeDomainError(w, "Month is required (YYYY-MM)", err)
		return
	}

	id := chi.URLParam(r, "id")
	balance, err := h.Statement.NetBalance(r.Context(), id, month)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		WorkerID:   id,
		Month:      month.String(),
		NetBalance: balance.InexactFloat64(),
	})
}

// =============================================================================
// ADMIN
// =============================================================================

// RunScoreMigration triggers the one-shot sum-semantics rewrite.
// Safe to call repeatedly.
func (h *Handler) RunScoreMigration(w http.ResponseWriter, r *http.Request) {
	result, err := h.Migrator.RecomputeTotals(r.Context())
	if err != nil {
		writeDomainError(w, "Migration failed", err)
		return
	}
	h.Log.WithFields(logrus.Fields{
		"evaluations": result.Evaluations,
		"entries":     result.Entries,
	}).Info("score migration completed")
	writeJSON(w, http.StatusOK, MigrationResultDTO{
		Evaluations: result.Evaluations,
		Entries:     result.Entries,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func attendanceDTOs(records []payroll.AttendanceRecord) []AttendanceDTO {
	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = attendanceDTO(rec)
	}
	return dtos
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, message, err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
