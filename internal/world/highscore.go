package world

// NoHighscore is the sentinel for "no best time recorded yet".
const NoHighscore uint64 = 0

// NextHighscore applies the replace-if-lower-or-unset rule. A zero
// candidate is never accepted: on the wire it is indistinguishable from
// the unset sentinel.
func NextHighscore(current, candidate uint64) (next uint64, replaced bool) {
	if candidate == NoHighscore {
		return current, false
	}
	if current == NoHighscore || candidate < current {
		return candidate, true
	}
	return current, false
}

// Highscore is the server's single best-time record, in whole seconds.
// Lives for the process lifetime only.
type Highscore struct {
	best uint64
}

func (h *Highscore) Best() uint64 {
	return h.best
}

// Accept offers a candidate time and reports whether it became the record.
func (h *Highscore) Accept(candidate uint64) bool {
	next, replaced := NextHighscore(h.best, candidate)
	h.best = next
	return replaced
}
