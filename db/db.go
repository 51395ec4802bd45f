package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"log"
	"net/url"
	"time"

	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/records"
	_ "github.com/mattn/go-sqlite3"
)

func OpenDB(fileName string) (*sql.DB, error) {
	params := url.Values{
		"_journal_mode": []string{"WAL"},
		"_synchronous":  []string{"NORMAL"},
		"cache":         []string{"shared"},
		"_busy_timeout": []string{"5000"},
		"_txlock":       []string{"immediate"},
	}
	dataSourceName := fmt.Sprintf("file:%s?%s", fileName, params.Encode())
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Create schema if not exists
	createTableQuery := `
CREATE TABLE IF NOT EXISTS patients (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id VARCHAR,
	gender VARCHAR NOT NULL,
	disease VARCHAR NOT NULL,
	time DATETIME default CURRENT_TIMESTAMP,
	data JSONB
);
CREATE INDEX IF NOT EXISTS patients_gender ON patients(gender COLLATE NOCASE);
`
	_, err = db.Exec(createTableQuery)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	return db, nil
}

// SaveRecords stores rs in one transaction, in order.
func SaveRecords(db *sql.DB, rs records.RecordSet, t time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO patients (id, gender, disease, data, time) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	ts := t.UTC().Format(consts.DateTimeFormat)
	for _, r := range rs {
		r = r.Normalize()
		dataJSON, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(r.ID, r.Gender, r.Disease, dataJSON, ts); err != nil {
			return fmt.Errorf("saving patient %q: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// SelectPatients yields the stored records matching gender in insertion order.
func SelectPatients(db *sql.DB, gender records.Gender) (iter.Seq[records.Record], error) {
	query := `SELECT data FROM patients`
	var args []any
	if gender != records.All {
		query += ` WHERE gender = ? COLLATE NOCASE`
		args = append(args, gender.String())
	}
	query += ` ORDER BY seq`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying patients: %w", err)
	}
	return func(yield func(records.Record) bool) {
		defer rows.Close()
		for rows.Next() {
			var j string
			if err := rows.Scan(&j); err != nil {
				log.Printf("Error scanning row: %s", err)
				return
			}
			var r records.Record
			if err := json.Unmarshal([]byte(j), &r); err != nil {
				log.Printf("Error unmarshalling patient: %s", err)
				return
			}
			if !yield(r) {
				return
			}
		}
	}, nil
}

// CountPatients returns the number of stored records.
func CountPatients(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM patients`).Scan(&n)
	return n, err
}
