package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Store is the keyed durable store holding one record per reported address.
type Store interface {
	// Atomic runs fn in a unit of work serialized per key. Writes staged
	// through txn are committed only when fn returns nil.
	Atomic(ctx context.Context, key ethcommon.Hash, fn func(txn Txn) error) error
	// Get returns the committed record stored under key, or ErrRecordNotFound.
	Get(ctx context.Context, key ethcommon.Hash) (*Record, error)
}

// Txn is the view of a store unit of work bound to one key.
type Txn interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	// Transfer moves amount from one balance to another, failing with
	// ErrInsufficientFunds when from cannot cover it.
	Transfer(ctx context.Context, from, to ethcommon.Hash, amount uint64) error
}

// EventSink receives events after their state change is committed.
type EventSink interface {
	Publish(message interface{}) error
}

// Clock returns the current time in unix seconds.
type Clock func() int64

func SystemClock() int64 {
	return time.Now().Unix()
}

type Registry struct {
	store Store
	gate  *Gate
	sink  EventSink
	clock Clock
}

func New(store Store, gate *Gate, sink EventSink, clock Clock) *Registry {
	if sink == nil {
		sink = LogSink{}
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Registry{
		store: store,
		gate:  gate,
		sink:  sink,
		clock: clock,
	}
}

// Fee returns the anti-spam fee charged per report.
func (r *Registry) Fee() uint64 {
	return r.gate.Fee()
}

// Report charges the anti-spam fee and records a report against target.
// The fee debit and the record update commit together or not at all.
func (r *Registry) Report(ctx context.Context, reporter, target, recipient ethcommon.Hash, amount *uint64) (*Record, error) {
	if err := r.gate.Check(target, reporter, recipient); err != nil {
		log.Warnf("Rejected report of %s by %s: %v", target.Hex(), reporter.Hex(), err)
		return nil, err
	}

	var (
		next  *Record
		event *ReportedEvent
	)
	err := r.store.Atomic(ctx, RecordKey(target), func(txn Txn) error {
		if err := txn.Transfer(ctx, reporter, recipient, r.gate.Fee()); err != nil {
			return err
		}
		prev, err := txn.Load(ctx)
		if err != nil && !errors.Is(err, ErrRecordNotFound) {
			return err
		}
		next, event, err = Aggregate(prev, Report{
			Address:  target,
			Reporter: reporter,
			Amount:   amount,
			Now:      r.clock(),
		})
		if err != nil {
			return err
		}
		return txn.Save(ctx, next)
	})
	if err != nil {
		log.Warnf("Report of %s by %s failed: %v", target.Hex(), reporter.Hex(), err)
		return nil, err
	}

	if next.ReportCount == 1 {
		log.Infof("New drainer report created for address: %s", target.Hex())
	} else {
		log.Infof("Drainer report updated for address: %s, report count %d", target.Hex(), next.ReportCount)
	}
	r.publish(event)
	return next, nil
}

// UpdateClassification merges classification metadata into the existing
// record for target. The caller must already be authorized.
func (r *Registry) UpdateClassification(ctx context.Context, target ethcommon.Hash, c Classification) (*Record, error) {
	var next *Record
	err := r.store.Atomic(ctx, RecordKey(target), func(txn Txn) error {
		prev, err := txn.Load(ctx)
		if err != nil {
			return err
		}
		next, err = Curate(prev, c)
		if err != nil {
			return err
		}
		return txn.Save(ctx, next)
	})
	if err != nil {
		log.Warnf("Classification update for %s failed: %v", target.Hex(), err)
		return nil, err
	}

	log.Infof("AI metadata updated for drainer: %s", target.Hex())
	r.publish(&ClassifiedEvent{
		Address:    target,
		Category:   next.Classification.String(),
		Confidence: next.ClassificationConfidence,
		Timestamp:  r.clock(),
	})
	return next, nil
}

// Get returns the record for target.
func (r *Registry) Get(ctx context.Context, target ethcommon.Hash) (*Record, error) {
	rec, err := r.store.Get(ctx, RecordKey(target))
	if err != nil {
		return nil, fmt.Errorf("read drainer report %s: %w", target.Hex(), err)
	}
	return rec, nil
}

func (r *Registry) publish(event interface{}) {
	if err := r.sink.Publish(event); err != nil {
		log.Errorf("Failed to publish %T: %v", event, err)
	}
}

// LogSink writes events to the log. It is used when no broker is configured.
type LogSink struct{}

func (LogSink) Publish(message interface{}) error {
	log.Infof("Event %T: %+v", message, message)
	return nil
}
