package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/dlscope/dlscope/internal/datasource"
)

// SQLite is an indexed, labeled backend over a sqlite dataset file.
//
// Expected schema:
//
//	CREATE TABLE datapoints (id INTEGER PRIMARY KEY, name TEXT,
//	                         data BLOB, label INTEGER);
//	CREATE TABLE labels     (id INTEGER PRIMARY KEY, text TEXT);
//
// The labels table is optional; without it the label count is derived from
// the distinct label values and no text format is registered.
type SQLite struct {
	path       string
	table      string
	labelTable string
	db         *sql.DB
	count      int
	label      int
	hasLabel   bool
}

// NewSQLite creates a sqlite backend over the dataset at path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path, table: "datapoints", labelTable: "labels"}
}

// Kind implements datasource.Backend.
func (s *SQLite) Kind() string { return "sqlite" }

// PrepareData opens the database and counts the datapoints.
func (s *SQLite) PrepareData(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", s.path)
	}
	row := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table))
	if err := row.Scan(&s.count); err != nil {
		db.Close()
		return errors.Wrapf(err, "counting rows of %s", s.table)
	}
	s.db = db
	return nil
}

// UnprepareData closes the database.
func (s *SQLite) UnprepareData() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.count = 0
	s.hasLabel = false
	return err
}

// Len implements datasource.IndexedBackend.
func (s *SQLite) Len() int { return s.count }

// FetchIndex loads the row at the given position, ordered by id.
func (s *SQLite) FetchIndex(ctx context.Context, index int) (datasource.Datapoint, error) {
	query := fmt.Sprintf(
		"SELECT name, data, label FROM %s ORDER BY id LIMIT 1 OFFSET ?", s.table)
	var (
		name  sql.NullString
		data  []byte
		label sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx, query, index)
	if err := row.Scan(&name, &data, &label); err != nil {
		return datasource.Datapoint{}, errors.Wrapf(err, "fetching row %d of %s", index, s.table)
	}
	s.label = int(label.Int64)
	s.hasLabel = label.Valid
	return datasource.Datapoint{Bytes: data, Name: name.String}, nil
}

// Label returns the label column of the current row.
func (s *SQLite) Label() (int, error) {
	if !s.hasLabel {
		return 0, fmt.Errorf("current row of %s has no label", s.table)
	}
	return s.label, nil
}

// PrepareLabels fills the label set from the labels table, falling back to
// the distinct label values of the dataset when no labels table exists.
func (s *SQLite) PrepareLabels(ctx context.Context, set *datasource.LabelSet) error {
	query := fmt.Sprintf("SELECT text FROM %s ORDER BY id", s.labelTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return s.prepareLabelsFromData(ctx, set)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return errors.Wrapf(err, "scanning %s", s.labelTable)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrapf(err, "reading %s", s.labelTable)
	}
	if err := set.SetCount(len(texts)); err != nil {
		return err
	}
	return set.AddFormat("text", texts)
}

func (s *SQLite) prepareLabelsFromData(ctx context.Context, set *datasource.LabelSet) error {
	query := fmt.Sprintf("SELECT COUNT(DISTINCT label) FROM %s", s.table)
	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting labels of %s", s.table)
	}
	return set.SetCount(count)
}
