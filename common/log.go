package common

import (
	"database/sql"

	"github.com/apex/log"
)

// LogResult logs a failed statement, and warns when exactOne is set and the
// statement did not touch exactly one row.
func LogResult(msgPrefix string, r sql.Result, e error, exactOne bool) {
	if e != nil {
		log.Errorf("%s: query failed: %v", msgPrefix, e)
		return
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.Errorf("%s: failed to get status of db op: %v", msgPrefix, err)
		return
	}
	if exactOne && rows != 1 {
		log.Warnf("%s: Expected to affect 1 row, affected %d", msgPrefix, rows)
	}
}
