package registry

import (
	"errors"
	"math"
	"reflect"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var (
	drainer = ethcommon.HexToHash("0xd1")
	alice   = ethcommon.HexToHash("0xa1")
	bob     = ethcommon.HexToHash("0xb0b")
	carol   = ethcommon.HexToHash("0xca")
)

func amount(v uint64) *uint64 {
	return &v
}

func TestAggregateCreate(t *testing.T) {
	testCases := []struct {
		name        string
		prev        *Record
		amount      *uint64
		expectTotal uint64
	}{
		{
			name:        "No slot",
			prev:        nil,
			amount:      amount(500),
			expectTotal: 500,
		}, {
			name:        "Fresh slot",
			prev:        &Record{},
			amount:      nil,
			expectTotal: 0,
		},
	}

	for _, testCase := range testCases {
		rec, ev, err := Aggregate(testCase.prev, Report{Address: drainer, Reporter: alice, Amount: testCase.amount, Now: 1000})
		if err != nil {
			t.Fatalf("%s, Aggregate: unexpected error %v", testCase.name, err)
		}
		expected := &Record{
			Address:               drainer,
			ReportCount:           1,
			FirstSeen:             1000,
			LastSeen:              1000,
			TotalAmountReported:   testCase.expectTotal,
			RecentReporters:       [RecentReportersCap]ethcommon.Hash{alice, Empty},
			Classification:        Unknown,
			ClassificationMethods: []Method{},
			ClassificationDomains: []string{},
		}
		if !reflect.DeepEqual(rec, expected) {
			t.Errorf("%s, Aggregate: expected %+v, got %+v", testCase.name, expected, rec)
		}
		if ev.ReportCount != 1 || ev.Reporter != alice || ev.Address != drainer || ev.Timestamp != 1000 {
			t.Errorf("%s, Aggregate: unexpected event %+v", testCase.name, ev)
		}
		if ev.AmountClaimed != testCase.amount {
			t.Errorf("%s, Aggregate: expected claimed amount %v, got %v", testCase.name, testCase.amount, ev.AmountClaimed)
		}
	}
}

func TestAggregateSequence(t *testing.T) {
	reports := []struct {
		reporter ethcommon.Hash
		amount   *uint64
		now      int64
	}{
		{alice, amount(10), 100},
		{bob, nil, 200},
		{carol, amount(32), 300},
		{alice, amount(0), 400},
		{bob, amount(1), 450},
	}

	var rec *Record
	var sum uint64
	for i, r := range reports {
		next, ev, err := Aggregate(rec, Report{Address: drainer, Reporter: r.reporter, Amount: r.amount, Now: r.now})
		if err != nil {
			t.Fatalf("report %d: unexpected error %v", i, err)
		}
		if r.amount != nil {
			sum += *r.amount
		}
		if next.ReportCount != uint32(i+1) || ev.ReportCount != next.ReportCount {
			t.Errorf("report %d: expected count %d, got %d (event %d)", i, i+1, next.ReportCount, ev.ReportCount)
		}
		if next.TotalAmountReported != sum {
			t.Errorf("report %d: expected total %d, got %d", i, sum, next.TotalAmountReported)
		}
		if next.FirstSeen != 100 {
			t.Errorf("report %d: first_seen changed to %d", i, next.FirstSeen)
		}
		if next.LastSeen != r.now {
			t.Errorf("report %d: expected last_seen %d, got %d", i, r.now, next.LastSeen)
		}
		if next.RecentReporters[0] != r.reporter {
			t.Errorf("report %d: expected newest reporter %s, got %s", i, r.reporter.Hex(), next.RecentReporters[0].Hex())
		}
		rec = next
	}

	if rec.RecentReporters != [RecentReportersCap]ethcommon.Hash{bob, alice} {
		t.Errorf("expected ring [bob alice], got %v", rec.RecentReporters)
	}
}

func TestAggregateRingEviction(t *testing.T) {
	var rec *Record
	for _, reporter := range []ethcommon.Hash{alice, bob, carol} {
		var err error
		rec, _, err = Aggregate(rec, Report{Address: drainer, Reporter: reporter, Now: 1})
		if err != nil {
			t.Fatalf("Aggregate: unexpected error %v", err)
		}
	}
	if rec.RecentReporters != [RecentReportersCap]ethcommon.Hash{carol, bob} {
		t.Errorf("expected [carol bob], got %v", rec.RecentReporters)
	}
}

func TestAggregateOverflow(t *testing.T) {
	base := func() *Record {
		return &Record{
			Address:               drainer,
			ReportCount:           7,
			FirstSeen:             10,
			LastSeen:              20,
			TotalAmountReported:   math.MaxUint64 - 5,
			RecentReporters:       [RecentReportersCap]ethcommon.Hash{alice, bob},
			Classification:        Phishing,
			ClassificationMethods: []Method{1, 2},
			ClassificationSummary: "summary",
			ClassificationDomains: []string{"evil.example"},
		}
	}

	testCases := []struct {
		name        string
		prev        func() *Record
		amount      *uint64
		expectError error
	}{
		{
			name:        "Amount overflow",
			prev:        base,
			amount:      amount(6),
			expectError: ErrAmountOverflow,
		}, {
			name:        "Amount at the limit",
			prev:        base,
			amount:      amount(5),
			expectError: nil,
		}, {
			name: "Report count overflow",
			prev: func() *Record {
				r := base()
				r.ReportCount = math.MaxUint32
				r.TotalAmountReported = 0
				return r
			},
			amount:      amount(1),
			expectError: ErrReportCountOverflow,
		},
	}

	for _, testCase := range testCases {
		prev := testCase.prev()
		snapshot := prev.Clone()
		next, ev, err := Aggregate(prev, Report{Address: drainer, Reporter: carol, Amount: testCase.amount, Now: 30})
		if !errors.Is(err, testCase.expectError) {
			t.Errorf("%s, Aggregate: expected error %v, got %v", testCase.name, testCase.expectError, err)
		}
		if !reflect.DeepEqual(prev, snapshot) {
			t.Errorf("%s, Aggregate: previous record modified: %+v", testCase.name, prev)
		}
		if testCase.expectError != nil {
			if next != nil || ev != nil {
				t.Errorf("%s, Aggregate: expected no result on error", testCase.name)
			}
			continue
		}
		if next.TotalAmountReported != math.MaxUint64 {
			t.Errorf("%s, Aggregate: expected total %d, got %d", testCase.name, uint64(math.MaxUint64), next.TotalAmountReported)
		}
		if next.Classification != Phishing || next.ClassificationSummary != "summary" {
			t.Errorf("%s, Aggregate: classification changed: %+v", testCase.name, next)
		}
	}
}

func TestAggregateClockBehindFirstSeen(t *testing.T) {
	rec, _, _ := Aggregate(nil, Report{Address: drainer, Reporter: alice, Now: 500})
	rec, _, err := Aggregate(rec, Report{Address: drainer, Reporter: bob, Now: 400})
	if err != nil {
		t.Fatalf("Aggregate: unexpected error %v", err)
	}
	if rec.FirstSeen > rec.LastSeen {
		t.Errorf("expected first_seen <= last_seen, got %d > %d", rec.FirstSeen, rec.LastSeen)
	}
	if rec.ReportCount != 2 {
		t.Errorf("expected 2 reports, got %d", rec.ReportCount)
	}
}
