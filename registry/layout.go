package registry

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

const (
	summaryRegion    = 500
	domainPoolRegion = 500

	offAddress     = 0
	offReportCount = offAddress + 32
	offFirstSeen   = offReportCount + 4
	offLastSeen    = offFirstSeen + 8
	offTotalAmount = offLastSeen + 8
	offReporters   = offTotalAmount + 8
	offCategory    = offReporters + 32*RecentReportersCap
	offMethods     = offCategory + 1
	offSummary     = offMethods + 4 + MethodsCap
	offDomains     = offSummary + 4 + summaryRegion
	offConfidence  = offDomains + 4 + domainPoolRegion
	offRecordEnd   = offConfidence + 1
)

// RecordSize is the fixed encoded size of a Record in bytes.
const RecordSize = offRecordEnd

// MarshalBinary encodes the record into exactly RecordSize bytes. Unused
// capacity is zero filled.
func (r *Record) MarshalBinary() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, RecordSize)
	le := binary.LittleEndian

	copy(buf[offAddress:], r.Address.Bytes())
	le.PutUint32(buf[offReportCount:], r.ReportCount)
	le.PutUint64(buf[offFirstSeen:], uint64(r.FirstSeen))
	le.PutUint64(buf[offLastSeen:], uint64(r.LastSeen))
	le.PutUint64(buf[offTotalAmount:], r.TotalAmountReported)
	for i, reporter := range r.RecentReporters {
		copy(buf[offReporters+32*i:], reporter.Bytes())
	}
	buf[offCategory] = byte(r.Classification)

	le.PutUint32(buf[offMethods:], uint32(len(r.ClassificationMethods)))
	for i, m := range r.ClassificationMethods {
		buf[offMethods+4+i] = byte(m)
	}

	le.PutUint32(buf[offSummary:], uint32(len(r.ClassificationSummary)))
	copy(buf[offSummary+4:], r.ClassificationSummary)

	le.PutUint32(buf[offDomains:], uint32(len(r.ClassificationDomains)))
	pos := offDomains + 4
	for _, d := range r.ClassificationDomains {
		buf[pos] = byte(len(d))
		copy(buf[pos+1:], d)
		pos += 1 + len(d)
	}

	buf[offConfidence] = r.ClassificationConfidence
	return buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrCorruptRecord, len(data), RecordSize)
	}
	le := binary.LittleEndian
	var out Record

	out.Address.SetBytes(data[offAddress : offAddress+32])
	out.ReportCount = le.Uint32(data[offReportCount:])
	out.FirstSeen = int64(le.Uint64(data[offFirstSeen:]))
	out.LastSeen = int64(le.Uint64(data[offLastSeen:]))
	out.TotalAmountReported = le.Uint64(data[offTotalAmount:])
	for i := range out.RecentReporters {
		out.RecentReporters[i].SetBytes(data[offReporters+32*i : offReporters+32*(i+1)])
	}
	out.Classification = Category(data[offCategory])

	n := le.Uint32(data[offMethods:])
	if n > MethodsCap {
		return fmt.Errorf("%w: method count %d", ErrCorruptRecord, n)
	}
	out.ClassificationMethods = make([]Method, n)
	for i := range out.ClassificationMethods {
		out.ClassificationMethods[i] = Method(data[offMethods+4+i])
	}

	n = le.Uint32(data[offSummary:])
	if n > summaryRegion {
		return fmt.Errorf("%w: summary length %d", ErrCorruptRecord, n)
	}
	summary := data[offSummary+4 : offSummary+4+int(n)]
	if !utf8.Valid(summary) {
		return fmt.Errorf("%w: summary is not valid UTF-8", ErrCorruptRecord)
	}
	out.ClassificationSummary = string(summary)

	n = le.Uint32(data[offDomains:])
	if n > DomainsCap {
		return fmt.Errorf("%w: domain count %d", ErrCorruptRecord, n)
	}
	out.ClassificationDomains = make([]string, 0, n)
	pos := offDomains + 4
	end := offDomains + 4 + domainPoolRegion
	for i := 0; i < int(n); i++ {
		if pos >= end {
			return fmt.Errorf("%w: domain pool overrun", ErrCorruptRecord)
		}
		l := int(data[pos])
		if pos+1+l > end {
			return fmt.Errorf("%w: domain pool overrun", ErrCorruptRecord)
		}
		out.ClassificationDomains = append(out.ClassificationDomains, string(data[pos+1:pos+1+l]))
		pos += 1 + l
	}

	out.ClassificationConfidence = data[offConfidence]

	if err := out.Validate(); err != nil {
		return err
	}
	*r = out
	return nil
}
