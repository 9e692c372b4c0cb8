// Package auth verifies signed requests and derives the 32-byte identity of
// the signer.
package auth

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"time"

	"drainer-registry/registry"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const domain = "drainer-registry"

// Identity derives the 32-byte identity of a public key.
func Identity(pub *ecdsa.PublicKey) ethcommon.Hash {
	return crypto.Keccak256Hash(crypto.FromECDSAPub(pub)[1:])
}

// ReportDigest is the digest a reporter signs to submit a report.
func ReportDigest(target, recipient ethcommon.Hash, amount *uint64, timestamp int64) ethcommon.Hash {
	amountField := []byte{}
	if amount != nil {
		amountField = binary.BigEndian.AppendUint64(nil, *amount)
	}
	return digest("report",
		target.Bytes(),
		recipient.Bytes(),
		amountField,
		binary.BigEndian.AppendUint64(nil, uint64(timestamp)))
}

// ClassificationDigest is the digest the curator signs to update a record.
func ClassificationDigest(target ethcommon.Hash, c registry.Classification, timestamp int64) ethcommon.Hash {
	methods := make([]byte, len(c.Methods))
	for i, m := range c.Methods {
		methods[i] = byte(m)
	}
	parts := [][]byte{
		target.Bytes(),
		binary.BigEndian.AppendUint64(nil, uint64(int64(c.CategoryCode))),
		methods,
		[]byte(c.Summary),
		binary.BigEndian.AppendUint64(nil, uint64(len(c.Domains))),
	}
	for _, d := range c.Domains {
		parts = append(parts, []byte(d))
	}
	parts = append(parts,
		binary.BigEndian.AppendUint64(nil, uint64(int64(c.Confidence))),
		binary.BigEndian.AppendUint64(nil, uint64(timestamp)))
	return digest("classify", parts...)
}

// digest hashes the action and every field, each prefixed with its length so
// that no two field lists share an encoding.
func digest(action string, fields ...[]byte) ethcommon.Hash {
	buf := []byte(domain + ":" + action)
	for _, f := range fields {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(f)))
		buf = append(buf, f...)
	}
	return crypto.Keccak256Hash(buf)
}

// Sign signs digest with key. The recovery id is 27 or 28, as wallets emit it.
func Sign(digest ethcommon.Hash, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Verifier recovers signer identities and rejects stale requests.
type Verifier struct {
	MaxAge time.Duration
	Now    func() time.Time
}

func NewVerifier(maxAge time.Duration) *Verifier {
	return &Verifier{MaxAge: maxAge, Now: time.Now}
}

// Recover returns the identity that produced signature over digest. The
// request timestamp must be within MaxAge of the current time.
func (v *Verifier) Recover(digest ethcommon.Hash, signature string, timestamp int64) (ethcommon.Hash, error) {
	if v.MaxAge > 0 {
		skew := v.Now().Sub(time.Unix(timestamp, 0))
		if skew > v.MaxAge || skew < -v.MaxAge {
			return ethcommon.Hash{}, fmt.Errorf("%w: request timestamp %d outside %v window", registry.ErrUnauthorized, timestamp, v.MaxAge)
		}
	}

	sig, err := hexutil.Decode(signature)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("%w: bad signature encoding: %v", registry.ErrUnauthorized, err)
	}
	if len(sig) != crypto.SignatureLength {
		return ethcommon.Hash{}, fmt.Errorf("%w: signature is %d bytes", registry.ErrUnauthorized, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("%w: %v", registry.ErrUnauthorized, err)
	}
	return Identity(pub), nil
}

// ParseIdentity parses a 0x-prefixed 32-byte hex identity.
func ParseIdentity(s string) (ethcommon.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return ethcommon.Hash{}, fmt.Errorf("bad identity %q: %w", s, err)
	}
	if len(b) != ethcommon.HashLength {
		return ethcommon.Hash{}, fmt.Errorf("bad identity %q: %d bytes, want %d", s, len(b), ethcommon.HashLength)
	}
	return ethcommon.BytesToHash(b), nil
}
