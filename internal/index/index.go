// Package index keeps the symbols of every known document in an in-memory
// SQLite database to answer workspace symbol searches.
package index

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS symbols (
    uri        TEXT    NOT NULL,
    seq        INTEGER NOT NULL,
    name       TEXT    NOT NULL,
    kind       INTEGER NOT NULL,
    container  TEXT,
    start_line INTEGER NOT NULL,
    start_char INTEGER NOT NULL,
    end_line   INTEGER NOT NULL,
    end_char   INTEGER NOT NULL,
    PRIMARY KEY (uri, seq)
);
CREATE INDEX IF NOT EXISTS symbols_name ON symbols(name);
`

// Index is a workspace symbol table. It is safe for concurrent use.
type Index struct {
	db *sql.DB
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	db, err := sql.Open("sqlite3", "file::memory:?cache=private")
	if err != nil {
		return nil, errors.Errorf("failed to open database: %w", err)
	}
	// every connection to an in-memory database sees its own database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Errorf("failed to initialize schema: %w", err)
	}
	return &Index{db: db}, nil
}

func (idx *Index) withTx(fn func(*sql.Tx) error) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return errors.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Replace sets the symbols of uri, dropping the previous ones.
func (idx *Index) Replace(uri protocol.DocumentUri, symbols []protocol.SymbolInformation) error {
	return idx.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM symbols WHERE uri = ?", uri); err != nil {
			return errors.Errorf("failed to delete symbols: %w", err)
		}
		stmt, err := tx.Prepare(`
            INSERT INTO symbols (uri, seq, name, kind, container, start_line, start_char, end_line, end_char)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        `)
		if err != nil {
			return errors.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, s := range symbols {
			r := s.Location.Range
			if _, err := stmt.Exec(
				uri, i, s.Name, s.Kind, s.ContainerName,
				r.Start.Line, r.Start.Character, r.End.Line, r.End.Character,
			); err != nil {
				return errors.Errorf("failed to insert symbol %q: %w", s.Name, err)
			}
		}
		return nil
	})
}

// Delete drops every symbol of uri.
func (idx *Index) Delete(uri protocol.DocumentUri) error {
	if _, err := idx.db.Exec("DELETE FROM symbols WHERE uri = ?", uri); err != nil {
		return errors.Errorf("failed to delete symbols: %w", err)
	}
	return nil
}

// Search returns the symbols whose name contains query, ordered by document
// then by position. An empty query matches every symbol.
func (idx *Index) Search(query string) ([]protocol.SymbolInformation, error) {
	rows, err := idx.db.Query(`
        SELECT uri, name, kind, container, start_line, start_char, end_line, end_char
        FROM symbols
        WHERE instr(name, ?) > 0
        ORDER BY uri, seq
    `, query)
	if err != nil {
		return nil, errors.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	symbols := []protocol.SymbolInformation{}
	for rows.Next() {
		var (
			s         protocol.SymbolInformation
			container sql.NullString
			r         protocol.Range
		)
		if err := rows.Scan(
			&s.Location.URI, &s.Name, &s.Kind, &container,
			&r.Start.Line, &r.Start.Character, &r.End.Line, &r.End.Character,
		); err != nil {
			return nil, errors.Errorf("failed to scan symbol: %w", err)
		}
		if container.Valid {
			s.ContainerName = &container.String
		}
		s.Location.Range = r
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("error iterating symbols: %w", err)
	}
	return symbols, nil
}

// Close releases the database.
func (idx *Index) Close() error {
	return idx.db.Close()
}
