package registry

import (
	"math"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Report is one accepted, paid claim that Address is a drainer.
type Report struct {
	Address  ethcommon.Hash
	Reporter ethcommon.Hash
	Amount   *uint64
	Now      int64
}

// ReportedEvent is emitted after a report is committed.
type ReportedEvent struct {
	Address       ethcommon.Hash `json:"drainer_address"`
	Reporter      ethcommon.Hash `json:"reporter"`
	ReportCount   uint32         `json:"report_count"`
	AmountClaimed *uint64        `json:"amount_stolen,omitempty"`
	Timestamp     int64          `json:"timestamp"`
}

// Aggregate applies a report to prev and returns the next record. A nil prev
// or one with a zero report count is initialized. prev is never modified, so
// a failed transition leaves the stored state exactly as it was.
func Aggregate(prev *Record, rep Report) (*Record, *ReportedEvent, error) {
	var next *Record
	if !prev.Exists() {
		next = newRecord(rep)
	} else {
		if prev.ReportCount == math.MaxUint32 {
			return nil, nil, ErrReportCountOverflow
		}
		total := prev.TotalAmountReported
		if rep.Amount != nil {
			if *rep.Amount > math.MaxUint64-total {
				return nil, nil, ErrAmountOverflow
			}
			total += *rep.Amount
		}

		next = prev.Clone()
		next.ReportCount++
		next.LastSeen = rep.Now
		if next.LastSeen < next.FirstSeen {
			// A clock reading behind first_seen must not break first_seen <= last_seen.
			next.LastSeen = next.FirstSeen
		}
		next.TotalAmountReported = total
		copy(next.RecentReporters[1:], next.RecentReporters[:RecentReportersCap-1])
		next.RecentReporters[0] = rep.Reporter
	}

	return next, &ReportedEvent{
		Address:       next.Address,
		Reporter:      rep.Reporter,
		ReportCount:   next.ReportCount,
		AmountClaimed: rep.Amount,
		Timestamp:     rep.Now,
	}, nil
}

func newRecord(rep Report) *Record {
	r := &Record{
		Address:                  rep.Address,
		ReportCount:              1,
		FirstSeen:                rep.Now,
		LastSeen:                 rep.Now,
		Classification:           Unknown,
		ClassificationMethods:    []Method{},
		ClassificationDomains:    []string{},
		ClassificationConfidence: 0,
	}
	if rep.Amount != nil {
		r.TotalAmountReported = *rep.Amount
	}
	r.RecentReporters[0] = rep.Reporter
	for i := 1; i < RecentReportersCap; i++ {
		r.RecentReporters[i] = Empty
	}
	return r
}
