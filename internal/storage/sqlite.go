package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"dcaBot/internal/finance"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Run is one stored simulation. ChatID is 0 for runs made through the HTTP
// API.
type Run struct {
	ID                string    `json:"id"`
	ChatID            int64     `json:"chatId,omitempty"`
	Tickers           []string  `json:"tickers"`
	Benchmark         string    `json:"benchmark,omitempty"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Frequency         string    `json:"frequency"`
	InitialInvestment float64   `json:"initialInvestment"`
	Contribution      float64   `json:"contribution"`
	Source            string    `json:"source"`
	FinalValue        float64   `json:"finalValue"`
	BenchmarkValue    float64   `json:"benchmarkValue,omitempty"`
	TotalInvested     float64   `json:"totalInvested"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewRun builds the record of a comparison run for chatID.
func NewRun(chatID int64, c *finance.Comparison) Run {
	return Run{
		ChatID:            chatID,
		Tickers:           c.Request.Tickers,
		Benchmark:         c.Request.Benchmark,
		Start:             c.Request.Start,
		End:               c.Request.End,
		Frequency:         string(c.Frequency),
		InitialInvestment: c.Request.InitialInvestment,
		Contribution:      c.Contribution,
		Source:            c.Source,
		FinalValue:        c.PortfolioSummary.FinalValue,
		BenchmarkValue:    c.BenchmarkSummary.FinalValue,
		TotalInvested:     c.PortfolioSummary.TotalInvested,
	}
}

type Store struct {
	db  DB
	now func() time.Time
}

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(db DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS simulations(
		id TEXT PRIMARY KEY,
		chat_id INTEGER,
		tickers TEXT,
		benchmark TEXT,
		start_date TEXT,
		end_date TEXT,
		frequency TEXT,
		initial REAL,
		contribution REAL,
		source TEXT,
		final_value REAL,
		benchmark_value REAL,
		total_invested REAL,
		created_at INTEGER
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS simulations_chat ON simulations(chat_id, created_at)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db, now: time.Now} }

// SaveRun stores r, assigning ID and CreatedAt when unset, and returns the
// stored record.
func (s *Store) SaveRun(r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	_, err := s.db.Exec(`INSERT INTO simulations(id,chat_id,tickers,benchmark,start_date,end_date,frequency,
		initial,contribution,source,final_value,benchmark_value,total_invested,created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.ChatID, strings.Join(r.Tickers, ","), r.Benchmark,
		r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly), r.Frequency,
		r.InitialInvestment, r.Contribution, r.Source,
		r.FinalValue, r.BenchmarkValue, r.TotalInvested, r.CreatedAt.UnixMilli())
	if err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	return r, nil
}

// RecentRuns returns up to limit runs of a chat, newest first.
func (s *Store) RecentRuns(chatID int64, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(`SELECT id,chat_id,tickers,benchmark,start_date,end_date,frequency,
		initial,contribution,source,final_value,benchmark_value,total_invested,created_at
		FROM simulations WHERE chat_id=? ORDER BY created_at DESC LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                   Run
			tickers, start, end string
			created             int64
		)
		if err := rows.Scan(&r.ID, &r.ChatID, &tickers, &r.Benchmark, &start, &end, &r.Frequency,
			&r.InitialInvestment, &r.Contribution, &r.Source,
			&r.FinalValue, &r.BenchmarkValue, &r.TotalInvested, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if tickers != "" {
			r.Tickers = strings.Split(tickers, ",")
		}
		r.Start, _ = time.Parse(time.DateOnly, start)
		r.End, _ = time.Parse(time.DateOnly, end)
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
