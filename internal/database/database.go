package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/emirozbir/monitor-agent/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at DATETIME NOT NULL,
	case_id TEXT NOT NULL,
	user_query TEXT NOT NULL,
	api_status TEXT NOT NULL,
	api_response_time TEXT NOT NULL,
	reply TEXT NOT NULL,
	alert_triggered INTEGER NOT NULL DEFAULT 0,
	request_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	case_row_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	case_id TEXT NOT NULL,
	api_status TEXT NOT NULL,
	chat_notify_status TEXT NOT NULL,
	fault_doc_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_cases_case_id ON cases(case_id);
CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at DESC);
`

type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// StoredCase is one processed case as persisted.
type StoredCase struct {
	ID              int64                `json:"id"`
	CreatedAt       time.Time            `json:"createdAt"`
	CaseID          string               `json:"caseId"`
	UserQuery       string               `json:"userQuery"`
	APIStatus       string               `json:"apiStatus"`
	APIResponseTime string               `json:"apiResponseTime"`
	Reply           string               `json:"reply"`
	Request         models.CaseRequest   `json:"request"`
	Action          *models.ActionResult `json:"actionTriggered,omitempty"`
}

// StoredAlert is one fired alert.
type StoredAlert struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"createdAt"`
	CaseID           string    `json:"caseId"`
	APIStatus        string    `json:"apiStatus"`
	ChatNotifyStatus string    `json:"chatNotifyStatus"`
	FaultDocID       string    `json:"faultDocId"`
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// PRAGMAs are per connection.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{conn: conn, now: time.Now}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// RecordCase stores a processed case and, when an alert fired, the alert.
func (db *DB) RecordCase(ctx context.Context, req *models.CaseRequest, result models.CaseResult) error {
	requestJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := db.now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO cases (
			created_at, case_id, user_query, api_status, api_response_time,
			reply, alert_triggered, request_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		now,
		result.CaseID,
		req.UserQuery,
		req.APIStatus,
		req.APIResponseTime,
		result.Reply,
		result.ActionResult != nil,
		string(requestJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert case: %w", err)
	}

	if result.ActionResult != nil {
		rowID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read case id: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO alerts (
				case_row_id, created_at, case_id, api_status,
				chat_notify_status, fault_doc_id
			) VALUES (?, ?, ?, ?, ?, ?)
		`,
			rowID,
			now,
			result.CaseID,
			req.APIStatus,
			result.ActionResult.ChatNotifyStatus,
			result.ActionResult.FaultDocID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert alert: %w", err)
		}
	}

	return tx.Commit()
}

const caseColumns = `
	c.id, c.created_at, c.case_id, c.user_query, c.api_status,
	c.api_response_time, c.reply, c.request_json,
	a.chat_notify_status, a.fault_doc_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*StoredCase, error) {
	var (
		stored      StoredCase
		requestJSON string
		chat, doc   sql.NullString
	)
	err := row.Scan(
		&stored.ID,
		&stored.CreatedAt,
		&stored.CaseID,
		&stored.UserQuery,
		&stored.APIStatus,
		&stored.APIResponseTime,
		&stored.Reply,
		&requestJSON,
		&chat,
		&doc,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(requestJSON), &stored.Request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	if chat.Valid || doc.Valid {
		stored.Action = &models.ActionResult{ChatNotifyStatus: chat.String, FaultDocID: doc.String}
	}
	return &stored, nil
}

// GetCase retrieves a single case by row ID
func (db *DB) GetCase(ctx context.Context, id int64) (*StoredCase, error) {
	query := `SELECT ` + caseColumns + `
		FROM cases c
		LEFT JOIN alerts a ON a.case_row_id = c.id
		WHERE c.id = ?
	`

	stored, err := scanCase(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query case: %w", err)
	}
	return stored, nil
}

// ListCases retrieves cases newest first. An empty caseID lists every case.
func (db *DB) ListCases(ctx context.Context, caseID string, limit, offset int) ([]StoredCase, error) {
	query := `SELECT ` + caseColumns + `
		FROM cases c
		LEFT JOIN alerts a ON a.case_row_id = c.id
		WHERE (? = '' OR c.case_id = ?)
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.QueryContext(ctx, query, caseID, caseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	cases := []StoredCase{}
	for rows.Next() {
		stored, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		cases = append(cases, *stored)
	}

	return cases, rows.Err()
}

// ListAlerts retrieves fired alerts newest first
func (db *DB) ListAlerts(ctx context.Context, limit, offset int) ([]StoredAlert, error) {
	query := `
		SELECT id, created_at, case_id, api_status, chat_notify_status, fault_doc_id
		FROM alerts
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []StoredAlert{}
	for rows.Next() {
		var a StoredAlert
		if err := rows.Scan(&a.ID, &a.CreatedAt, &a.CaseID, &a.APIStatus, &a.ChatNotifyStatus, &a.FaultDocID); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// CountCases returns the total number of cases
func (db *DB) CountCases(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM cases").Scan(&count)
	return count, err
}

// DeleteCase deletes a case and its alert by row ID
func (db *DB) DeleteCase(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM cases WHERE id = ?", id)
	return err
}
