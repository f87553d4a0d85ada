package database

import (
	"database/sql"
	"fmt"
	"log"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// SessionSummary aggregates attendance for one session.
type SessionSummary struct {
	SessionID     *int64  `json:"session_id"`
	Marked        int     `json:"marked"`
	AvgConfidence float64 `json:"avg_confidence"`
	MinConfidence int     `json:"min_confidence"`
}

// DailyCount is the number of attendance records marked on one calendar day.
type DailyCount struct {
	Day    string `json:"day"`
	Marked int    `json:"marked"`
}

// InitReportsDB opens a read-mostly raw connection for report queries. It
// shares the SQLite file with the GORM connection; WAL keeps the two from
// blocking each other.
func InitReportsDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open reports database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		log.Printf("warning: failed to set WAL mode: %v", err)
	}

	log.Println("reports database initialized successfully at", dataSourceName)
	return db, nil
}

// SessionSummaries returns per-session attendance counts and confidence
// statistics, including the records marked outside any session (NULL group).
func SessionSummaries(db *sql.DB) ([]SessionSummary, error) {
	queryBuilder := psql.Select(
		"session_id",
		"COUNT(*) AS marked",
		"AVG(confidence) AS avg_confidence",
		"MIN(confidence) AS min_confidence",
	).
		From("attendance_records").
		GroupBy("session_id").
		OrderBy("session_id ASC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for SessionSummaries: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session summaries: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var sessionID sql.NullInt64
		if err := rows.Scan(&sessionID, &s.Marked, &s.AvgConfidence, &s.MinConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan session summary row: %w", err)
		}
		if sessionID.Valid {
			s.SessionID = &sessionID.Int64
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DailyCounts returns attendance counts per calendar day for the last n days.
func DailyCounts(db *sql.DB, days int) ([]DailyCount, error) {
	if days <= 0 {
		days = 30
	}

	queryBuilder := psql.Select(
		"date(marked_at) AS day",
		"COUNT(*) AS marked",
	).
		From("attendance_records").
		Where(sq.Expr("marked_at >= date('now', ?)", fmt.Sprintf("-%d days", days))).
		GroupBy("date(marked_at)").
		OrderBy("day DESC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for DailyCounts: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Day, &c.Marked); err != nil {
			return nil, fmt.Errorf("failed to scan daily count row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
