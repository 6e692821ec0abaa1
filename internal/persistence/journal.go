// Package persistence keeps a SQLite journal of every session: the progress
// log, world snapshots and the situation history.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/worldweaver/internal/logbook"
	"github.com/talgya/worldweaver/internal/world"
)

// MemoryPath keeps the journal in memory for the life of the process.
const MemoryPath = ":memory:"

// ErrNoSnapshot is returned when a session has not produced a world yet.
var ErrNoSnapshot = errors.New("no world snapshot recorded")

// Journal wraps a SQLite connection.
type Journal struct {
	conn *sqlx.DB
}

// Open opens or creates a journal at path. MemoryPath gives a private
// in-memory database.
func Open(path string) (*Journal, error) {
	dsn := path
	if path != MemoryPath && !strings.HasPrefix(path, "file:") {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// Every connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)

	j := &Journal{conn: conn}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Debug("journal opened", "path", path)
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.conn.Close()
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS log_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		message TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		record_json TEXT NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS situations (
		session_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		content TEXT NOT NULL,
		user_action TEXT,
		success_roll INTEGER,
		PRIMARY KEY (session_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_log_session ON log_entries(session_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_session ON world_snapshots(session_id);
	`
	_, err := j.conn.Exec(schema)
	return err
}

// RecordLog appends a log entry. Replaced entries are appended again, so the
// journal keeps both the "Generating" and the final line.
func (j *Journal) RecordLog(sessionID string, e logbook.Entry) error {
	_, err := j.conn.Exec(
		"INSERT INTO log_entries (session_id, kind, message, at) VALUES (?, ?, ?, ?)",
		sessionID, string(e.Kind), e.Message, e.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record log: %w", err)
	}
	return nil
}

// RecordWorld stores a snapshot of the record.
func (j *Journal) RecordWorld(sessionID string, rec world.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = j.conn.Exec(
		"INSERT INTO world_snapshots (session_id, record_json, at) VALUES (?, ?, ?)",
		sessionID, string(data), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record world: %w", err)
	}
	return nil
}

// RecordSituation writes the situation at idx, replacing the open version
// once it has been resolved.
func (j *Journal) RecordSituation(sessionID string, idx int, s world.Situation) error {
	var action sql.NullString
	if s.Action != nil {
		action = sql.NullString{String: *s.Action, Valid: true}
	}
	var roll sql.NullInt64
	if s.Roll != nil {
		roll = sql.NullInt64{Int64: int64(*s.Roll), Valid: true}
	}

	_, err := j.conn.Exec(`INSERT INTO situations (session_id, idx, content, user_action, success_roll)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, idx) DO UPDATE SET
			content = excluded.content,
			user_action = excluded.user_action,
			success_roll = excluded.success_roll`,
		sessionID, idx, s.Content, action, roll,
	)
	if err != nil {
		return fmt.Errorf("record situation %d: %w", idx, err)
	}
	return nil
}

// LatestWorld returns the most recent snapshot of a session.
func (j *Journal) LatestWorld(sessionID string) (world.Record, error) {
	var data string
	err := j.conn.Get(&data,
		"SELECT record_json FROM world_snapshots WHERE session_id = ? ORDER BY id DESC LIMIT 1",
		sessionID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return world.Record{}, ErrNoSnapshot
	}
	if err != nil {
		return world.Record{}, fmt.Errorf("latest world: %w", err)
	}

	var rec world.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return world.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// Snapshots returns how many world snapshots a session has recorded.
func (j *Journal) Snapshots(sessionID string) (int, error) {
	var n int
	err := j.conn.Get(&n, "SELECT COUNT(*) FROM world_snapshots WHERE session_id = ?", sessionID)
	return n, err
}

type situationRow struct {
	Content     string         `db:"content"`
	UserAction  sql.NullString `db:"user_action"`
	SuccessRoll sql.NullInt64  `db:"success_roll"`
}

// Transcript returns the situations of a session in order.
func (j *Journal) Transcript(sessionID string) ([]world.Situation, error) {
	var rows []situationRow
	err := j.conn.Select(&rows,
		"SELECT content, user_action, success_roll FROM situations WHERE session_id = ? ORDER BY idx",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}

	out := make([]world.Situation, 0, len(rows))
	for _, r := range rows {
		s := world.Situation{Content: r.Content}
		if r.UserAction.Valid && r.SuccessRoll.Valid {
			s = s.Resolve(r.UserAction.String, int(r.SuccessRoll.Int64))
		}
		out = append(out, s)
	}
	return out, nil
}

type logRow struct {
	Kind    string `db:"kind"`
	Message string `db:"message"`
	At      int64  `db:"at"`
}

// Logs returns the log entries of a session, oldest first.
func (j *Journal) Logs(sessionID string) ([]logbook.Entry, error) {
	var rows []logRow
	err := j.conn.Select(&rows,
		"SELECT kind, message, at FROM log_entries WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("logs: %w", err)
	}

	out := make([]logbook.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, logbook.Entry{Kind: logbook.Kind(r.Kind), Message: r.Message, At: time.Unix(0, r.At)})
	}
	return out, nil
}
