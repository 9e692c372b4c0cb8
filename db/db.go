// Package db is the MySQL backed registry.Store. Each record is persisted in
// its fixed binary layout next to a few columns used for lookups.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"drainer-registry/common"
	"drainer-registry/registry"

	"github.com/apex/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
	_ "github.com/go-sql-driver/mysql"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn inside a serializable transaction. The record row is locked
// by Load, which serializes concurrent units of work on the same key.
func (s *Store) Atomic(ctx context.Context, key ethcommon.Hash, fn func(txn registry.Txn) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		log.Errorf("Error creating transaction: %v", err)
		return err
	}
	defer tx.Rollback()

	if err := fn(&txn{tx: tx, key: key}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Errorf("Error committing the transaction: %v", err)
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key ethcommon.Hash) (*registry.Record, error) {
	return loadRecord(s.db.QueryRowContext(ctx, `SELECT record FROM drainer_reports WHERE record_key = ?`, key.Hex()))
}

// Addresses lists every reported address.
func (s *Store) Addresses(ctx context.Context) ([]ethcommon.Hash, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address FROM drainer_reports`)
	if err != nil {
		log.Errorf("Could not retrieve reported addresses: %v", err)
		return nil, err
	}
	defer rows.Close()

	addresses := make([]ethcommon.Hash, 0, 100)
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			log.Errorf("Cannot scan a row: %v", err)
			continue
		}
		addresses = append(addresses, ethcommon.HexToHash(address))
	}
	return addresses, rows.Err()
}

// Latest returns the most recently reported records, newest first.
func (s *Store) Latest(ctx context.Context, limit int) ([]*registry.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM drainer_reports ORDER BY last_seen DESC LIMIT ?`, limit)
	if err != nil {
		log.Errorf("Could not retrieve latest reports: %v", err)
		return nil, err
	}
	defer rows.Close()

	records := make([]*registry.Record, 0, limit)
	for rows.Next() {
		rec, err := loadRecord(rows)
		if err != nil {
			log.Errorf("Skipping unreadable report: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func loadRecord(row scanner) (*registry.Record, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, registry.ErrRecordNotFound
		}
		return nil, err
	}
	rec := &registry.Record{}
	if err := rec.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return rec, nil
}

type txn struct {
	tx  *sql.Tx
	key ethcommon.Hash
}

func (t *txn) Load(ctx context.Context) (*registry.Record, error) {
	return loadRecord(t.tx.QueryRowContext(ctx, `SELECT record FROM drainer_reports WHERE record_key = ? FOR UPDATE`, t.key.Hex()))
}

func (t *txn) Save(ctx context.Context, rec *registry.Record) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	result, err := t.tx.ExecContext(ctx, `INSERT INTO drainer_reports (record_key, address, report_count, last_seen, record)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE report_count = ?, last_seen = ?, record = ?`,
		t.key.Hex(), rec.Address.Hex(), int64(rec.ReportCount), rec.LastSeen, data,
		int64(rec.ReportCount), rec.LastSeen, data)
	common.LogResult("saveDrainerReport", result, err, false)
	if err != nil {
		log.Errorf("Error saving drainer report: %v", err)
		return err
	}
	return nil
}

func (t *txn) Transfer(ctx context.Context, from, to ethcommon.Hash, amount uint64) error {
	if amount > math.MaxInt64 {
		return fmt.Errorf("transfer of %d exceeds the ledger range", amount)
	}

	var balance uint64
	err := t.tx.QueryRowContext(ctx, `SELECT amount FROM balances WHERE id = ? FOR UPDATE`, from.Hex()).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Errorf("Error reading balance of %s: %v", from.Hex(), err)
		return err
	}
	if balance < amount {
		log.Warnf("Balance of %s is %d, fee is %d", from.Hex(), balance, amount)
		return registry.ErrInsufficientFunds
	}

	result, err := t.tx.ExecContext(ctx, `UPDATE balances SET amount = amount - ? WHERE id = ?`, int64(amount), from.Hex())
	common.LogResult("debitFee", result, err, true)
	if err != nil {
		return err
	}

	result, err = t.tx.ExecContext(ctx, `INSERT INTO balances (id, amount) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE amount = amount + ?`,
		to.Hex(), int64(amount), int64(amount))
	common.LogResult("creditFee", result, err, false)
	if err != nil {
		return err
	}

	result, err = t.tx.ExecContext(ctx, `INSERT INTO fee_transfers (from_id, to_id, amount) VALUES (?, ?, ?)`,
		from.Hex(), to.Hex(), int64(amount))
	common.LogResult("journalFee", result, err, true)
	return err
}
