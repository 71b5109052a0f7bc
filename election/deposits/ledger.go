// Package deposits implements an in-memory deposit ledger. Deployments
// integrating with a real token ledger supply their own election.Deposits
// implementation; this one serves standalone nodes and simulations.
package deposits

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/onflow/multiphase/election"
	model "github.com/onflow/multiphase/model/election"
)

// Ledger tracks per-owner outstanding holds.
type Ledger struct {
	mu          sync.Mutex
	log         zerolog.Logger
	outstanding map[model.Identifier]uint64
}

var _ election.Deposits = (*Ledger)(nil)

func NewLedger(log zerolog.Logger) *Ledger {
	return &Ledger{
		log:         log.With().Str("component", "deposit_ledger").Logger(),
		outstanding: make(map[model.Identifier]uint64),
	}
}

// Hold locks the given amount against the owner.
// No errors are expected during normal operation.
func (l *Ledger) Hold(owner model.Identifier, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held := l.outstanding[owner] + amount
	if held < l.outstanding[owner] {
		return fmt.Errorf("deposit hold overflows for owner %x", owner[:])
	}
	l.outstanding[owner] = held

	l.log.Debug().Hex("owner", owner[:]).Uint64("amount", amount).Msg("deposit held")
	return nil
}

// Release frees a previously held amount. Releasing more than is outstanding
// indicates a double release and fails.
func (l *Ledger) Release(owner model.Identifier, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held := l.outstanding[owner]
	if held < amount {
		return fmt.Errorf("releasing %d exceeds outstanding hold %d for owner %x", amount, held, owner[:])
	}
	if held == amount {
		delete(l.outstanding, owner)
	} else {
		l.outstanding[owner] = held - amount
	}

	l.log.Debug().Hex("owner", owner[:]).Uint64("amount", amount).Msg("deposit released")
	return nil
}

// Outstanding returns the owner's currently held amount.
func (l *Ledger) Outstanding(owner model.Identifier) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outstanding[owner]
}
