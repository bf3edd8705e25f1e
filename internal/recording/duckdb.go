// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

package recording

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/rezolus-go/internal/metric"
)

// DuckDB is a columnar recording backed by an embedded DuckDB database,
// accessed through database/sql with parameterized Exec/Query calls. Labels
// and per-timestamp arrays are stored as JSON text columns rather than
// native DuckDB LIST/MAP values — a deliberate simplification documented in
// DESIGN.md — so every column round-trips through database/sql without
// depending on the driver's native array-binding surface.
type DuckDB struct {
	conn *sql.DB
	path string
}

// OpenDuckDB opens (creating if necessary) a DuckDB-backed recording at
// path.
func OpenDuckDB(path string) (*DuckDB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("recording: create directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("recording: open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DuckDB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DuckDB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recording_header (
			source TEXT, version TEXT, interval_ns BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS metric_columns (
			metric_name TEXT,
			kind TEXT,
			labels_json TEXT,
			timestamps_json TEXT,
			values_json TEXT,
			hist_a INTEGER,
			hist_n INTEGER
		)`,
	}
	for _, s := range stmts {
		if _, err := d.conn.Exec(s); err != nil {
			return fmt.Errorf("recording: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection.
func (d *DuckDB) Close() error { return d.conn.Close() }

// WriteHeader replaces the single recording_header row.
func (d *DuckDB) WriteHeader(h Header) error {
	if _, err := d.conn.Exec(`DELETE FROM recording_header`); err != nil {
		return fmt.Errorf("recording: clear header: %w", err)
	}
	_, err := d.conn.Exec(
		`INSERT INTO recording_header (source, version, interval_ns) VALUES (?, ?, ?)`,
		h.Source, h.Version, h.IntervalNS,
	)
	if err != nil {
		return fmt.Errorf("recording: write header: %w", err)
	}
	return nil
}

// Header reads the recording_header row.
func (d *DuckDB) Header() (Header, error) {
	var h Header
	row := d.conn.QueryRow(`SELECT source, version, interval_ns FROM recording_header LIMIT 1`)
	if err := row.Scan(&h.Source, &h.Version, &h.IntervalNS); err != nil {
		return Header{}, fmt.Errorf("recording: read header: %w", err)
	}
	return h, nil
}

// AppendColumn inserts one metric's columns as a row.
func (d *DuckDB) AppendColumn(c Column) error {
	labelsJSON, err := json.Marshal(c.Labels)
	if err != nil {
		return fmt.Errorf("recording: marshal labels: %w", err)
	}
	tsJSON, err := json.Marshal(c.TimestampsNS)
	if err != nil {
		return fmt.Errorf("recording: marshal timestamps: %w", err)
	}

	var valuesJSON []byte
	switch c.Kind {
	case metric.KindCounter:
		valuesJSON, err = json.Marshal(c.ValuesU64)
	case metric.KindGauge:
		valuesJSON, err = json.Marshal(c.ValuesF64)
	case metric.KindHistogram:
		valuesJSON, err = json.Marshal(c.HistogramCounts)
	default:
		return fmt.Errorf("recording: unsupported column kind %v", c.Kind)
	}
	if err != nil {
		return fmt.Errorf("recording: marshal values: %w", err)
	}

	_, err = d.conn.Exec(
		`INSERT INTO metric_columns
			(metric_name, kind, labels_json, timestamps_json, values_json, hist_a, hist_n)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.MetricName, c.Kind.String(), string(labelsJSON), string(tsJSON), string(valuesJSON),
		c.HistogramA, c.HistogramN,
	)
	if err != nil {
		return fmt.Errorf("recording: append column for %s: %w", c.MetricName, err)
	}
	return nil
}

// Columns reads back every recorded column, reconstructing each one's
// metric.Kind from its stored tag.
func (d *DuckDB) Columns() ([]Column, error) {
	rows, err := d.conn.Query(
		`SELECT metric_name, kind, labels_json, timestamps_json, values_json, hist_a, hist_n
		 FROM metric_columns ORDER BY metric_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("recording: query columns: %w", err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			name, kindStr, labelsJSON, tsJSON, valuesJSON string
			histA, histN                                  uint
		)
		if err := rows.Scan(&name, &kindStr, &labelsJSON, &tsJSON, &valuesJSON, &histA, &histN); err != nil {
			return nil, fmt.Errorf("recording: scan column: %w", err)
		}

		c := Column{MetricName: name, HistogramA: histA, HistogramN: histN}
		if err := json.Unmarshal([]byte(labelsJSON), &c.Labels); err != nil {
			return nil, fmt.Errorf("recording: unmarshal labels for %s: %w", name, err)
		}
		if err := json.Unmarshal([]byte(tsJSON), &c.TimestampsNS); err != nil {
			return nil, fmt.Errorf("recording: unmarshal timestamps for %s: %w", name, err)
		}

		switch strings.ToLower(kindStr) {
		case "counter":
			c.Kind = metric.KindCounter
			if err := json.Unmarshal([]byte(valuesJSON), &c.ValuesU64); err != nil {
				return nil, fmt.Errorf("recording: unmarshal u64 values for %s: %w", name, err)
			}
		case "gauge":
			c.Kind = metric.KindGauge
			if err := json.Unmarshal([]byte(valuesJSON), &c.ValuesF64); err != nil {
				return nil, fmt.Errorf("recording: unmarshal f64 values for %s: %w", name, err)
			}
		case "histogram":
			c.Kind = metric.KindHistogram
			if err := json.Unmarshal([]byte(valuesJSON), &c.HistogramCounts); err != nil {
				return nil, fmt.Errorf("recording: unmarshal histogram counts for %s: %w", name, err)
			}
		default:
			return nil, fmt.Errorf("recording: unknown kind %q for metric %s", kindStr, name)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
