// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventlog persists committed staking events in sqlite.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/binary"
	"strings"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/staking/events"
)

var logger = log.WithContext("pkg", "eventlog")

const insertStmt = "INSERT INTO event(session, type, account, validator, amount, amountBefore, amountAfter) VALUES (?, ?, ?, ?, ?, ?, ?)"

type EventLog struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmts         *stmtCache
}

// New creates or opens the event log at path.
func New(path string) (eventLog *EventLog, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventLog == nil {
			db.Close()
		}
	}()
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "failed to create event table")
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventLog{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmts:         newStmtCache(db),
	}, nil
}

// NewMem creates an event log in ram.
func NewMem() (*EventLog, error) {
	return New(":memory:")
}

func (l *EventLog) Close() error {
	l.stmts.Clear()
	return l.db.Close()
}

func (l *EventLog) Path() string {
	return l.path
}

func (l *EventLog) DriverVersion() string {
	return l.driverVersion
}

func u64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// Append stores evs in one transaction.
func (l *EventLog) Append(ctx context.Context, evs []events.Event) error {
	return l.AppendWith(ctx, evs, nil)
}

// AppendWith stores evs in one transaction and runs persist before it
// commits. An error from persist rolls the events back, so evs land only
// together with whatever persist writes.
func (l *EventLog) AppendWith(ctx context.Context, evs []events.Event, persist func() error) error {
	if len(evs) == 0 {
		if persist != nil {
			return persist()
		}
		return nil
	}
	stmt, err := l.stmts.Prepare(insertStmt)
	if err != nil {
		return err
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txStmt := tx.StmtContext(ctx, stmt)
	for _, ev := range evs {
		if _, err := txStmt.ExecContext(ctx,
			ev.Session,
			string(ev.Type),
			ev.Account.Bytes(),
			ev.Validator.Bytes(),
			u64(ev.Amount),
			u64(ev.Before),
			u64(ev.After),
		); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "failed to insert event")
		}
	}
	if persist != nil {
		if err := persist(); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	metricAppended().Add(int64(len(evs)))
	logger.Debug("appended events", "count", len(evs))
	return nil
}

// Filter returns the events matching filter, all events when nil.
func (l *EventLog) Filter(ctx context.Context, filter *Filter) ([]*Entry, error) {
	if filter == nil {
		return l.query(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	metricsHandleFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND session >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND session <= ?"
		}
	}
	if len(filter.Types) > 0 {
		stmt += " AND type IN (?" + strings.Repeat(", ?", len(filter.Types)-1) + ")"
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ?"
	}
	if filter.Validator != nil {
		args = append(args, filter.Validator.Bytes())
		stmt += " AND validator = ?"
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return l.query(ctx, stmt, args...)
}

func (l *EventLog) query(ctx context.Context, stmt string, args ...any) ([]*Entry, error) {
	rows, err := l.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       uint64
			session   uint32
			typ       string
			account   []byte
			validator []byte
			amount    []byte
			before    []byte
			after     []byte
		)
		if err := rows.Scan(&seq, &session, &typ, &account, &validator, &amount, &before, &after); err != nil {
			return nil, err
		}
		entries = append(entries, &Entry{
			Seq: seq,
			Event: events.Event{
				Type:      events.Type(typ),
				Session:   session,
				Account:   core.BytesToAddress(account),
				Validator: core.BytesToAddress(validator),
				Amount:    binary.BigEndian.Uint64(amount),
				Before:    binary.BigEndian.Uint64(before),
				After:     binary.BigEndian.Uint64(after),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// PruneBefore deletes the events of sessions before session.
func (l *EventLog) PruneBefore(ctx context.Context, session uint32) (int64, error) {
	res, err := l.db.ExecContext(ctx, "DELETE FROM event WHERE session < ?", session)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune events")
	}
	return res.RowsAffected()
}

// to cache prepared sql statement, which maps query string to stmt.
type stmtCache struct {
	db *sql.DB
	m  sync.Map
}

func newStmtCache(db *sql.DB) *stmtCache {
	return &stmtCache{db: db}
}

func (sc *stmtCache) Prepare(query string) (*sql.Stmt, error) {
	if cached, ok := sc.m.Load(query); ok {
		return cached.(*sql.Stmt), nil
	}
	stmt, err := sc.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	actual, loaded := sc.m.LoadOrStore(query, stmt)
	if loaded {
		stmt.Close()
	}
	return actual.(*sql.Stmt), nil
}

func (sc *stmtCache) Clear() {
	sc.m.Range(func(k, v any) bool {
		_ = v.(*sql.Stmt).Close()
		sc.m.Delete(k)
		return true
	})
}
