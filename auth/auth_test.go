package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"drainer-registry/registry"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

func fixedNow() time.Time {
	return time.Unix(1_700_000_000, 0)
}

func TestRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	other, _ := crypto.GenerateKey()

	target := ethcommon.HexToHash("0xd1")
	recipient := ethcommon.HexToHash("0xfee")
	amount := uint64(12)
	ts := fixedNow().Unix()
	digest := ReportDigest(target, recipient, &amount, ts)
	sig, err := Sign(digest, key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	otherSig, _ := Sign(digest, other)

	v := &Verifier{MaxAge: 5 * time.Minute, Now: fixedNow}

	testCases := []struct {
		name      string
		digest    ethcommon.Hash
		signature string
		timestamp int64

		expectIdentity ethcommon.Hash
		expectError    bool
	}{
		{
			name:           "Valid signature",
			digest:         digest,
			signature:      sig,
			timestamp:      ts,
			expectIdentity: Identity(&key.PublicKey),
		}, {
			name:           "Other signer",
			digest:         digest,
			signature:      otherSig,
			timestamp:      ts,
			expectIdentity: Identity(&other.PublicKey),
		}, {
			name:        "Stale timestamp",
			digest:      digest,
			signature:   sig,
			timestamp:   ts - 3600,
			expectError: true,
		}, {
			name:        "Future timestamp",
			digest:      digest,
			signature:   sig,
			timestamp:   ts + 3600,
			expectError: true,
		}, {
			name:        "Not hex",
			digest:      digest,
			signature:   "signature",
			timestamp:   ts,
			expectError: true,
		}, {
			name:        "Short signature",
			digest:      digest,
			signature:   "0x0102",
			timestamp:   ts,
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		id, err := v.Recover(testCase.digest, testCase.signature, testCase.timestamp)
		if testCase.expectError {
			if !errors.Is(err, registry.ErrUnauthorized) {
				t.Errorf("%s, Recover: expected ErrUnauthorized, got %v", testCase.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s, Recover: unexpected error %v", testCase.name, err)
			continue
		}
		if id != testCase.expectIdentity {
			t.Errorf("%s, Recover: expected %s, got %s", testCase.name, testCase.expectIdentity.Hex(), id.Hex())
		}
	}
}

func TestRecoverRawRecoveryID(t *testing.T) {
	key, _ := crypto.GenerateKey()
	digest := ReportDigest(ethcommon.HexToHash("0xd1"), ethcommon.HexToHash("0xfee"), nil, 1)
	raw, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	v := NewVerifier(0)
	id, err := v.Recover(digest, hexutil.Encode(raw), 1)
	if err != nil {
		t.Fatalf("Recover: unexpected error %v", err)
	}
	if id != Identity(&key.PublicKey) {
		t.Errorf("Recover: expected %s, got %s", Identity(&key.PublicKey).Hex(), id.Hex())
	}
}

func TestDigestsBindFields(t *testing.T) {
	target := ethcommon.HexToHash("0xd1")
	recipient := ethcommon.HexToHash("0xfee")
	zero := uint64(0)

	if ReportDigest(target, recipient, nil, 1) == ReportDigest(target, recipient, &zero, 1) {
		t.Errorf("absent and zero amount share a digest")
	}
	if ReportDigest(target, recipient, nil, 1) == ReportDigest(recipient, target, nil, 1) {
		t.Errorf("swapped target and recipient share a digest")
	}

	c := registry.Classification{CategoryCode: 1, Domains: []string{"ab", "c"}, Confidence: 10}
	d := registry.Classification{CategoryCode: 1, Domains: []string{"a", "bc"}, Confidence: 10}
	if ClassificationDigest(target, c, 1) == ClassificationDigest(target, d, 1) {
		t.Errorf("different domain lists share a digest")
	}
}

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		in          string
		expectError bool
	}{
		{"0xab" + strings.Repeat("00", 31), false},
		{"0xabcd", true},
		{"abcd", true},
		{"", true},
	}
	for _, test := range tests {
		_, err := ParseIdentity(test.in)
		if (err != nil) != test.expectError {
			t.Errorf("ParseIdentity(%q): expected error %v, got %v", test.in, test.expectError, err)
		}
	}
}
