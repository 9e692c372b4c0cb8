package db

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the registry tables if they don't exist.
func InitSchema(db *sql.DB) error {
	log.Info("Initializing drainer registry database schema...")

	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS drainer_reports(
		record_key CHAR(66) NOT NULL,
		address CHAR(66) NOT NULL,
		report_count INT UNSIGNED NOT NULL,
		last_seen BIGINT NOT NULL,
		record BINARY(1148) NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (record_key),
		INDEX address_index (address),
		INDEX last_seen_index (last_seen)
	)`
	if _, err := db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create drainer_reports table: %w", err)
	}
	log.Info("Drainer_reports table created/verified")

	balancesTableSQL := `
	CREATE TABLE IF NOT EXISTS balances(
		id CHAR(66) NOT NULL,
		amount BIGINT UNSIGNED NOT NULL DEFAULT 0,
		PRIMARY KEY (id)
	)`
	if _, err := db.Exec(balancesTableSQL); err != nil {
		return fmt.Errorf("failed to create balances table: %w", err)
	}
	log.Info("Balances table created/verified")

	transfersTableSQL := `
	CREATE TABLE IF NOT EXISTS fee_transfers(
		seq INT NOT NULL AUTO_INCREMENT,
		from_id CHAR(66) NOT NULL,
		to_id CHAR(66) NOT NULL,
		amount BIGINT UNSIGNED NOT NULL,
		ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (seq),
		INDEX from_index (from_id)
	)`
	if _, err := db.Exec(transfersTableSQL); err != nil {
		return fmt.Errorf("failed to create fee_transfers table: %w", err)
	}
	log.Info("Fee_transfers table created/verified")

	return nil
}
