package domain

import "time"

// FetchRun records the outcome of one admitted fetch.
type FetchRun struct {
	ID          string    `json:"id"          db:"id"`
	Route       string    `json:"route"       db:"route"`
	StartedAt   time.Time `json:"started_at"  db:"started_at"`
	FinishedAt  time.Time `json:"finished_at" db:"finished_at"`
	Attempts    int       `json:"attempts"    db:"attempts"`
	Outcome     string    `json:"outcome"     db:"outcome"` // "success" or an ErrorKind name
	StatusCode  int       `json:"status_code" db:"status_code"`
	RecipeCount int       `json:"recipe_count" db:"recipe_count"`
	Error       string    `json:"error_msg,omitempty" db:"error_msg"`
}

const OutcomeSuccess = "success"

// Duration returns how long the run took.
func (r *FetchRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
