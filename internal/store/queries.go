package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/errors"
)

// ListEntry is the lightweight row used by history views.
type ListEntry struct {
	ID        string    `json:"id"`
	Project   string    `json:"project"`
	Branch    string    `json:"branch,omitempty"`
	WorkType  string    `json:"work_type,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Save stores a capsule. The session ID doubles as the primary key.
func Save(db *sql.DB, c *capsule.Capsule) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return errors.NewInternal(err)
	}

	var workType string
	if c.Context.WorkSession != nil {
		workType = c.Context.WorkSession.WorkType
	}

	query := `
		INSERT INTO capsules (id, project, branch, work_type, summary, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.Exec(query,
		c.Metadata.SessionID, c.Project.Name, c.Project.Branch,
		workType, c.Context.Summary, string(payload),
		c.Metadata.Timestamp.Unix(),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Load retrieves a capsule by session ID.
func Load(db *sql.DB, id string) (*capsule.Capsule, error) {
	row := db.QueryRow(`SELECT payload FROM capsules WHERE id = ?`, id)
	return scanPayload(row, id)
}

// Latest retrieves the most recently captured capsule.
func Latest(db *sql.DB) (*capsule.Capsule, error) {
	row := db.QueryRow(`
		SELECT payload FROM capsules
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)
	return scanPayload(row, "latest")
}

// List returns up to limit entries, newest first.
func List(db *sql.DB, limit int) ([]ListEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`
		SELECT id, project, branch, work_type, summary, created_at
		FROM capsules
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var entries []ListEntry
	for rows.Next() {
		var (
			e         ListEntry
			branch    sql.NullString
			workType  sql.NullString
			summary   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Project, &branch, &workType, &summary, &createdAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.Branch = branch.String
		e.WorkType = workType.String
		e.Summary = summary.String
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

// CleanupOlderThan deletes capsules captured before now-age and
// returns how many were removed.
func CleanupOlderThan(db *sql.DB, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age).Unix()
	result, err := db.Exec(`DELETE FROM capsules WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

func scanPayload(row *sql.Row, identifier string) (*capsule.Capsule, error) {
	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(identifier)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var c capsule.Capsule
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &c, nil
}
