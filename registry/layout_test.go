package registry

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

func TestRecordSize(t *testing.T) {
	if RecordSize != 1148 {
		t.Errorf("expected record size 1148, got %d", RecordSize)
	}
}

func TestMarshalFixedSize(t *testing.T) {
	small := reportedRecord()

	full, err := Curate(reportedRecord(), Classification{
		CategoryCode: 4,
		Methods:      []Method{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		Summary:      strings.Repeat("z", 1000),
		Domains:      []string{strings.Repeat("q", 300), strings.Repeat("w", 300), strings.Repeat("e", 300), strings.Repeat("r", 300), strings.Repeat("t", 300), "y"},
		Confidence:   99,
	})
	if err != nil {
		t.Fatalf("Curate: unexpected error %v", err)
	}
	full.ReportCount = math.MaxUint32
	full.TotalAmountReported = math.MaxUint64
	full.FirstSeen = math.MinInt64
	full.LastSeen = math.MaxInt64

	for name, rec := range map[string]*Record{"small": small, "full": full} {
		data, err := rec.MarshalBinary()
		if err != nil {
			t.Fatalf("%s, MarshalBinary: unexpected error %v", name, err)
		}
		if len(data) != RecordSize {
			t.Errorf("%s, MarshalBinary: expected %d bytes, got %d", name, RecordSize, len(data))
		}
		decoded := &Record{}
		if err := decoded.UnmarshalBinary(data); err != nil {
			t.Fatalf("%s, UnmarshalBinary: unexpected error %v", name, err)
		}
		if !reflect.DeepEqual(decoded, rec) {
			t.Errorf("%s, UnmarshalBinary: expected %+v, got %+v", name, rec, decoded)
		}
	}
}

func TestMarshalRejectsOversizedRecord(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(r *Record)
	}{
		{"Too many methods", func(r *Record) { r.ClassificationMethods = make([]Method, MethodsCap+1) }},
		{"Summary too long", func(r *Record) { r.ClassificationSummary = strings.Repeat("a", SummaryCap+1) }},
		{"Too many domains", func(r *Record) { r.ClassificationDomains = make([]string, DomainsCap+1) }},
		{"Domain too long", func(r *Record) { r.ClassificationDomains = []string{strings.Repeat("a", DomainCap+1)} }},
		{"Confidence out of range", func(r *Record) { r.ClassificationConfidence = MaxConfidence + 1 }},
		{"Zero report count", func(r *Record) { r.ReportCount = 0 }},
		{"First seen after last seen", func(r *Record) { r.FirstSeen = r.LastSeen + 1 }},
	}
	for _, testCase := range testCases {
		rec := reportedRecord()
		testCase.mutate(rec)
		if _, err := rec.MarshalBinary(); !errors.Is(err, ErrCorruptRecord) {
			t.Errorf("%s, MarshalBinary: expected ErrCorruptRecord, got %v", testCase.name, err)
		}
	}
}

func TestUnmarshalCorrupt(t *testing.T) {
	valid, err := reportedRecord().MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: unexpected error %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(b []byte) []byte
	}{
		{"Short buffer", func(b []byte) []byte { return b[:RecordSize-1] }},
		{"Method count", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[offMethods:], 11); return b }},
		{"Summary length", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[offSummary:], 501); return b }},
		{"Summary encoding", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[offSummary:], 1)
			b[offSummary+4] = 0xff
			return b
		}},
		{"Domain count", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[offDomains:], 6); return b }},
		{"Domain length", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[offDomains:], 1)
			b[offDomains+4] = 200
			return b
		}},
		{"Confidence", func(b []byte) []byte { b[offConfidence] = 101; return b }},
	}
	for _, testCase := range testCases {
		data := testCase.mutate(append([]byte{}, valid...))
		rec := &Record{}
		if err := rec.UnmarshalBinary(data); !errors.Is(err, ErrCorruptRecord) {
			t.Errorf("%s, UnmarshalBinary: expected ErrCorruptRecord, got %v", testCase.name, err)
		}
	}
}

func TestRecordKey(t *testing.T) {
	a := ethcommon.HexToHash("0x01")
	b := ethcommon.HexToHash("0x02")
	if RecordKey(a) != RecordKey(a) {
		t.Errorf("RecordKey is not deterministic")
	}
	if RecordKey(a) == RecordKey(b) {
		t.Errorf("RecordKey(%s) collides with RecordKey(%s)", a.Hex(), b.Hex())
	}
	if RecordKey(a) == a {
		t.Errorf("RecordKey must not be the address itself")
	}
}
