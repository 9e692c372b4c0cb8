// Package screen keeps a Bloom filter of every reported address, so that
// wallets can screen a counterparty without a store round trip.
package screen

import (
	"context"
	"io"
	"sync"

	"github.com/apex/log"
	"github.com/bits-and-blooms/bloom/v3"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Lister lists every reported address.
type Lister interface {
	Addresses(ctx context.Context) ([]ethcommon.Hash, error)
}

// Filter is a concurrent-safe Bloom filter of reported addresses. A miss is
// definitive; a hit must be confirmed against the store.
type Filter struct {
	mu      sync.RWMutex
	filter  *bloom.BloomFilter
	version uint64
}

func New(capacity uint, fpRate float64) *Filter {
	return &Filter{filter: bloom.NewWithEstimates(capacity, fpRate)}
}

// Warm adds every address the store knows about.
func (f *Filter) Warm(ctx context.Context, lister Lister) error {
	addresses, err := lister.Addresses(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	for _, a := range addresses {
		f.filter.Add(a.Bytes())
	}
	if len(addresses) > 0 {
		f.version++
	}
	f.mu.Unlock()
	log.Infof("Pre-screen warmed with %d addresses", len(addresses))
	return nil
}

func (f *Filter) Add(address ethcommon.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filter.TestOrAdd(address.Bytes()) {
		return
	}
	f.version++
}

// MayContain reports whether address may have been reported.
func (f *Filter) MayContain(address ethcommon.Hash) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.Test(address.Bytes())
}

// Version changes every time an address is added.
func (f *Filter) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// ApproximateLen estimates how many distinct addresses were added.
func (f *Filter) ApproximateLen() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.ApproximatedSize()
}

// WriteTo writes the filter in the bloom/v3 binary encoding, which clients
// load with BloomFilter.ReadFrom.
func (f *Filter) WriteTo(w io.Writer) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.WriteTo(w)
}
