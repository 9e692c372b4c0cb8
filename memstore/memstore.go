// Package memstore is an in-process registry.Store. Records are held in
// their fixed binary layout, the same bytes the MySQL store persists.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"drainer-registry/registry"

	"github.com/apex/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Transfer is one journaled fee movement.
type Transfer struct {
	From   ethcommon.Hash
	To     ethcommon.Hash
	Amount uint64
}

type Store struct {
	mu        sync.Mutex
	records   map[ethcommon.Hash][]byte
	addresses map[ethcommon.Hash]ethcommon.Hash
	balances  map[ethcommon.Hash]uint64
	transfers []Transfer
}

func New() *Store {
	return &Store{
		records:   make(map[ethcommon.Hash][]byte),
		addresses: make(map[ethcommon.Hash]ethcommon.Hash),
		balances:  make(map[ethcommon.Hash]uint64),
	}
}

// Credit adds amount to the balance of id.
func (s *Store) Credit(id ethcommon.Hash, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[id] > math.MaxUint64-amount {
		return fmt.Errorf("balance overflow for %s", id.Hex())
	}
	s.balances[id] += amount
	return nil
}

func (s *Store) Balance(id ethcommon.Hash) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[id]
}

// Transfers returns the fee journal.
func (s *Store) Transfers() []Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transfer{}, s.transfers...)
}

// Atomic serializes every unit of work behind one lock, which is stronger
// than the per-key serialization registry.Store requires.
func (s *Store) Atomic(ctx context.Context, key ethcommon.Hash, fn func(txn registry.Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &txn{
		store:    s,
		key:      key,
		balances: make(map[ethcommon.Hash]uint64),
	}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for id, amount := range t.balances {
		s.balances[id] = amount
	}
	s.transfers = append(s.transfers, t.transfers...)
	if t.record != nil {
		s.records[key] = t.record
		s.addresses[key] = t.address
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key ethcommon.Hash) (*registry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(key)
}

// Addresses lists every reported address, sorted.
func (s *Store) Addresses(ctx context.Context) ([]ethcommon.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ethcommon.Hash, 0, len(s.addresses))
	for _, a := range s.addresses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Big().Cmp(out[j].Big()) < 0
	})
	return out, nil
}

// Latest returns up to limit records, most recently reported first.
func (s *Store) Latest(ctx context.Context, limit int) ([]*registry.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]*registry.Record, 0, len(s.records))
	for key := range s.records {
		rec, err := s.load(key)
		if err != nil {
			log.Errorf("Skipping unreadable report: %v", err)
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].LastSeen != records[j].LastSeen {
			return records[i].LastSeen > records[j].LastSeen
		}
		return records[i].Address.Big().Cmp(records[j].Address.Big()) < 0
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Store) load(key ethcommon.Hash) (*registry.Record, error) {
	data, ok := s.records[key]
	if !ok {
		return nil, registry.ErrRecordNotFound
	}
	rec := &registry.Record{}
	if err := rec.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return rec, nil
}

// txn stages writes until Atomic commits them. Callers hold Store.mu.
type txn struct {
	store     *Store
	key       ethcommon.Hash
	record    []byte
	address   ethcommon.Hash
	balances  map[ethcommon.Hash]uint64
	transfers []Transfer
}

func (t *txn) Load(ctx context.Context) (*registry.Record, error) {
	if t.record != nil {
		rec := &registry.Record{}
		if err := rec.UnmarshalBinary(t.record); err != nil {
			return nil, err
		}
		return rec, nil
	}
	return t.store.load(t.key)
}

func (t *txn) Save(ctx context.Context, rec *registry.Record) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	t.record = data
	t.address = rec.Address
	return nil
}

func (t *txn) balance(id ethcommon.Hash) uint64 {
	if b, ok := t.balances[id]; ok {
		return b
	}
	return t.store.balances[id]
}

func (t *txn) Transfer(ctx context.Context, from, to ethcommon.Hash, amount uint64) error {
	fromBalance := t.balance(from)
	if fromBalance < amount {
		log.Warnf("Balance of %s is %d, fee is %d", from.Hex(), fromBalance, amount)
		return registry.ErrInsufficientFunds
	}
	t.balances[from] = fromBalance - amount
	toBalance := t.balance(to)
	if toBalance > math.MaxUint64-amount {
		return fmt.Errorf("balance overflow for %s", to.Hex())
	}
	t.balances[to] = toBalance + amount
	t.transfers = append(t.transfers, Transfer{From: from, To: to, Amount: amount})
	return nil
}
