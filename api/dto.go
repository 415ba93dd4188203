/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the wire contract. Decimal amounts are rendered as JSON numbers; nullable
  values (salary, average score) are pointers so they serialize as null.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/yazanabukhait2007-sudo/al-durra-management/engine"
	"github.com/yazanabukhait2007-sudo/al-durra-management/evaluation"
	"github.com/yazanabukhait2007-sudo/al-durra-management/payroll"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CATALOGS
// =============================================================================

type WorkerDTO struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Salary *float64 `json:"salary"`
}

type CreateWorkerRequest struct {
	Name   string   `json:"name"`
	Salary *float64 `json:"salary"`
}

type TaskDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TargetQuantity int    `json:"target_quantity"`
}

type CreateTaskRequest struct {
	Name           string `json:"name"`
	TargetQuantity int    `json:"target_quantity"`
}

func workerDTO(w engine.Worker) WorkerDTO {
	dto := WorkerDTO{ID: w.ID, Name: w.Name}
	if w.Salary != nil {
		v := w.Salary.InexactFloat64()
		dto.Salary = &v
	}
	return dto
}

// =============================================================================
// EVALUATIONS
// =============================================================================

type EntryInputDTO struct {
	TaskID   string `json:"task_id"`
	Quantity int    `json:"quantity"`
}

type CreateEvaluationRequest struct {
	WorkerID string          `json:"worker_id"`
	Date     string          `json:"date"`
	Entries  []EntryInputDTO `json:"entries"`
}

type UpdateEvaluationRequest struct {
	Entries []EntryInputDTO `json:"entries"`
}

type EvaluationDTO struct {
	ID         string  `json:"id"`
	WorkerID   string  `json:"worker_id"`
	WorkerName string  `json:"worker_name"`
	Date       string  `json:"date"`
	TotalScore float64 `json:"total_score"`
}

type TaskEntryDTO struct {
	ID             string  `json:"id"`
	TaskID         string  `json:"task_id"`
	TaskName       string  `json:"task_name"`
	TargetQuantity int     `json:"target_quantity"`
	Quantity       int     `json:"quantity"`
	Score          float64 `json:"score"`
}

type EvaluationDetailDTO struct {
	EvaluationDTO
	Entries []TaskEntryDTO `json:"entries"`
}

type CreateEvaluationResponse struct {
	EvaluationID string  `json:"evaluation_id"`
	DailyScore   float64 `json:"daily_score"`
}

type MonthlyReportRowDTO struct {
	WorkerID     string   `json:"worker_id"`
	WorkerName   string   `json:"worker_name"`
	DaysWorked   int      `json:"days_worked"`
	AverageScore *float64 `json:"average_score"`
}

func evaluationDTO(ev evaluation.DailyEvaluation) EvaluationDTO {
	return EvaluationDTO{
		ID:         ev.ID,
		WorkerID:   ev.WorkerID,
		WorkerName: ev.WorkerName,
		Date:       ev.Date.String(),
		TotalScore: ev.TotalScore.InexactFloat64(),
	}
}

func entryDTO(e evaluation.TaskEntry) TaskEntryDTO {
	return TaskEntryDTO{
		ID:             e.ID,
		TaskID:         e.TaskID,
		TaskName:       e.TaskName,
		TargetQuantity: e.TargetQuantity,
		Quantity:       e.Quantity,
		Score:          e.Score.InexactFloat64(),
	}
}

func reportRowDTO(row evaluation.MonthlyReportRow) MonthlyReportRowDTO {
	dto := MonthlyReportRowDTO{
		WorkerID:   row.WorkerID,
		WorkerName: row.WorkerName,
		DaysWorked: row.DaysWorked,
	}
	if row.AverageScore != nil {
		v := row.AverageScore.InexactFloat64()
		dto.AverageScore = &v
	}
	return dto
}

// =============================================================================
// PAYROLL
// =============================================================================

type AttendanceDTO struct {
	ID       string `json:"id"`
	WorkerID string `json:"worker_id"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type UpsertAttendanceRequest struct {
	WorkerID string `json:"worker_id"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Notes    string `json:"notes"`
}

type TransactionDTO struct {
	ID          string  `json:"id"`
	WorkerID    string  `json:"worker_id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
}

type AddTransactionRequest struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

type BalanceDTO struct {
	WorkerID   string  `json:"worker_id"`
	Month      string  `json:"month"`
	NetBalance float64 `json:"net_balance"`
}

type MigrationResultDTO struct {
	Evaluations int `json:"evaluations_rewritten"`
	Entries     int `json:"entries_rewritten"`
}

func attendanceDTO(rec payroll.AttendanceRecord) AttendanceDTO {
	return AttendanceDTO{
		ID:       rec.ID,
		WorkerID: rec.WorkerID,
		Date:     rec.Date.String(),
		Status:   string(rec.Status),
		CheckIn:  rec.CheckIn,
		CheckOut: rec.CheckOut,
		Notes:    rec.Notes,
	}
}

func transactionDTO(tx payroll.WorkerTransaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		WorkerID:    tx.WorkerID,
		Type:        string(tx.Type),
		Amount:      tx.Amount.InexactFloat64(),
		Date:        tx.Date.String(),
		Description: tx.Description,
	}
}

func decimalFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
