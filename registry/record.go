package registry

import (
	"fmt"
	"unicode/utf8"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	RecentReportersCap = 2
	MethodsCap         = 10
	SummaryCap         = 500
	DomainsCap         = 5
	DomainCap          = 100
	MaxConfidence      = 100
)

// recordKeySeed prefixes the reported address when deriving the store key.
var recordKeySeed = []byte("drainer")

// Empty marks an unused slot of the recent reporters ring.
var Empty = ethcommon.Hash{}

// Category is the attack category assigned by the classification channel.
type Category uint8

const (
	Phishing          Category = 0
	FakeAirdrop       Category = 1
	SocialEngineering Category = 2
	MaliciousApproval Category = 3
	SetAuthority      Category = 4
	Unknown           Category = 255
)

// CategoryFromCode maps an integer code to a Category. Codes outside the
// known set map to Unknown.
func CategoryFromCode(code int) Category {
	switch code {
	case 0:
		return Phishing
	case 1:
		return FakeAirdrop
	case 2:
		return SocialEngineering
	case 3:
		return MaliciousApproval
	case 4:
		return SetAuthority
	default:
		return Unknown
	}
}

func (c Category) String() string {
	switch c {
	case Phishing:
		return "Phishing"
	case FakeAirdrop:
		return "FakeAirdrop"
	case SocialEngineering:
		return "SocialEngineering"
	case MaliciousApproval:
		return "MaliciousApproval"
	case SetAuthority:
		return "SetAuthority"
	default:
		return "Unknown"
	}
}

// Method is a one-byte attack method tag.
type Method uint8

// Record is the aggregate kept for one reported address.
type Record struct {
	Address             ethcommon.Hash
	ReportCount         uint32
	FirstSeen           int64
	LastSeen            int64
	TotalAmountReported uint64
	RecentReporters     [RecentReportersCap]ethcommon.Hash

	Classification           Category
	ClassificationMethods    []Method
	ClassificationSummary    string
	ClassificationDomains    []string
	ClassificationConfidence uint8
}

// RecordKey derives the store key for a reported address.
func RecordKey(address ethcommon.Hash) ethcommon.Hash {
	return crypto.Keccak256Hash(recordKeySeed, address.Bytes())
}

// Exists reports whether the record has been initialized by a report.
func (r *Record) Exists() bool {
	return r != nil && r.ReportCount > 0
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	if r.ClassificationMethods != nil {
		c.ClassificationMethods = append([]Method{}, r.ClassificationMethods...)
	}
	if r.ClassificationDomains != nil {
		c.ClassificationDomains = append([]string{}, r.ClassificationDomains...)
	}
	return &c
}

// Validate checks the record against its capacity bounds and the fixed
// layout regions.
func (r *Record) Validate() error {
	if r.ReportCount == 0 {
		return fmt.Errorf("%w: zero report count", ErrCorruptRecord)
	}
	if r.FirstSeen > r.LastSeen {
		return fmt.Errorf("%w: first_seen %d after last_seen %d", ErrCorruptRecord, r.FirstSeen, r.LastSeen)
	}
	if len(r.ClassificationMethods) > MethodsCap {
		return fmt.Errorf("%w: %d methods", ErrCorruptRecord, len(r.ClassificationMethods))
	}
	if utf8.RuneCountInString(r.ClassificationSummary) > SummaryCap || len(r.ClassificationSummary) > summaryRegion {
		return fmt.Errorf("%w: summary exceeds its region", ErrCorruptRecord)
	}
	if len(r.ClassificationDomains) > DomainsCap {
		return fmt.Errorf("%w: %d domains", ErrCorruptRecord, len(r.ClassificationDomains))
	}
	pool := 0
	for _, d := range r.ClassificationDomains {
		if utf8.RuneCountInString(d) > DomainCap || len(d) > DomainCap {
			return fmt.Errorf("%w: domain %q exceeds its bound", ErrCorruptRecord, d)
		}
		pool += 1 + len(d)
	}
	if pool > domainPoolRegion {
		return fmt.Errorf("%w: domain pool holds %d bytes", ErrCorruptRecord, pool)
	}
	if r.ClassificationConfidence > MaxConfidence {
		return fmt.Errorf("%w: confidence %d", ErrCorruptRecord, r.ClassificationConfidence)
	}
	return nil
}
