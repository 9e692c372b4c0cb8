package registry

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// AntiSpamFee is charged per report, in base units (0.01 of a 9-decimal token).
const AntiSpamFee uint64 = 10_000_000

// SystemIdentity is the all-zero identity of the system program. It can
// never be a drainer.
var SystemIdentity = ethcommon.Hash{}

// Gate validates a report before any funds move.
type Gate struct {
	reserved  map[ethcommon.Hash]struct{}
	recipient ethcommon.Hash
}

// NewGate creates a gate rejecting SystemIdentity and every reserved
// identity. A non-zero recipient pins the fee recipient of every report.
func NewGate(recipient ethcommon.Hash, reserved ...ethcommon.Hash) *Gate {
	g := &Gate{
		reserved:  map[ethcommon.Hash]struct{}{SystemIdentity: {}},
		recipient: recipient,
	}
	for _, r := range reserved {
		g.reserved[r] = struct{}{}
	}
	return g
}

// Fee returns the amount debited from the reporter per report.
func (g *Gate) Fee() uint64 {
	return AntiSpamFee
}

// Check rejects self reports, reserved targets and self-paying fee
// recipients.
func (g *Gate) Check(target, reporter, recipient ethcommon.Hash) error {
	if target == reporter {
		return ErrSelfReport
	}
	if _, ok := g.reserved[target]; ok {
		return ErrDisallowedTarget
	}
	if recipient == reporter {
		return ErrInvalidRecipient
	}
	if g.recipient != (ethcommon.Hash{}) && recipient != g.recipient {
		return ErrInvalidRecipient
	}
	return nil
}
