// Package storage is WeiBack's single-file embedded relational store:
// schema migrations, a trigram full-text index over post text, and
// transactional CRUD for posts/users/media rows. Modeled on the
// teacher's db/migrate.go (linear migrations, meta-table version
// tracking) and on agentic-research-mache's modernc.org/sqlite usage
// (PRAGMA tuning right after Open, one *sql.DB per access pattern).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps two handles onto the same SQLite file: write is a
// single-connection handle serializing all upserts/deletes (spec.md
// §5 "one write connection"), read is a pooled handle for queries.
// This is the SQLite-shaped analogue of the teacher's Postgres
// single-*sql.DB-with-a-pool model, split because SQLite itself only
// tolerates one writer at a time.
type Store struct {
	write  *sql.DB
	read   *sql.DB
	logger *log.Logger
}

// Open opens (creating if absent) the database file at path, applies
// any unapplied migrations, and returns a ready Store.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	write, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open write handle: %w", err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&mode=ro")
	if err != nil {
		_ = write.Close()
		return nil, fmt.Errorf("open read handle: %w", err)
	}
	read.SetMaxOpenConns(4)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := write.Exec(pragma); err != nil {
			_ = write.Close()
			_ = read.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := runMigrations(write, logger); err != nil {
		_ = write.Close()
		_ = read.Close()
		return nil, err
	}

	return &Store{write: write, read: read, logger: logger}, nil
}

func (s *Store) Close() error {
	werr := s.write.Close()
	rerr := s.read.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func runMigrations(db *sql.DB, logger *log.Logger) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.Query(`SELECT name FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.name] {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}
		for _, stmt := range splitStatements(m.sql) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES (?)`, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
		logger.Printf("[Storage] applied migration=%s", m.name)
	}
	return nil
}

// splitStatements breaks a migration's SQL block on statement
// terminators. modernc.org/sqlite's driver executes one statement per
// Exec call, unlike some cgo sqlite3 bindings that accept a whole
// script; triggers contain internal semicolons inside BEGIN...END so a
// naive split must not cut those.
func splitStatements(block string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			depth++
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		if depth > 0 {
			if upper == "END;" || strings.HasSuffix(upper, "END;") {
				depth--
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
			continue
		}
		if strings.HasSuffix(trimmed, ";") {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	filtered := out[:0]
	for _, s := range out {
		if strings.TrimSpace(s) != "" {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// isUniqueViolation reports whether err is a UNIQUE/PRIMARY KEY
// constraint failure. modernc.org/sqlite surfaces these as plain
// *sqlite.Error with a formatted message rather than a typed code the
// way lib/pq gave the teacher pq.Error.Code, so we match on text —
// the same "best effort, string-sniff the driver error" approach the
// teacher uses for the Postgres OOM message in
// scheduled_posts_worker.go.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed: unique")
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
