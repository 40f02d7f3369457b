// Package streak holds the pure win/loss streak arithmetic. It has no
// dependencies and never touches storage; everything durable lives in the
// ledger package.
package streak

// State is the derived streak position of one player within a group and
// season. Current is signed: positive means consecutive wins, negative
// consecutive losses. The zero value means no outcomes recorded yet; after
// the first outcome Current is never zero again.
//
// Best only ever tracks winning runs. It is the maximum value Current has
// reached, compared as signed integers, so a long losing run never raises it.
type State struct {
	Current int `json:"current_streak"`
	Best    int `json:"best_streak"`
}

// Update folds a single outcome into a prior state. A win on a non-winning
// streak starts a fresh run of 1; a loss on a non-losing streak starts a
// fresh run of -1. Total function, no error cases.
func Update(prior State, won bool) State {
	next := State{Best: prior.Best}

	if won {
		if prior.Current > 0 {
			next.Current = prior.Current + 1
		} else {
			next.Current = 1
		}
	} else {
		if prior.Current < 0 {
			next.Current = prior.Current - 1
		} else {
			next.Current = -1
		}
	}

	if next.Current > next.Best {
		next.Best = next.Current
	}
	return next
}

// Replay folds an ordered outcome sequence onto a prior state. The ledger
// writer uses this to rebuild a derived state from history.
func Replay(prior State, outcomes []bool) State {
	state := prior
	for _, won := range outcomes {
		state = Update(state, won)
	}
	return state
}
