package model

import (
	"fmt"
	"math"
)

// Decrement issues delta from the lot. GRN lots count in kg; stock lots count
// in metres of running length. Remaining quantity floors at zero and the
// other two units are re-derived from the new remaining value.
func (l *Lot) Decrement(delta float64) error {
	prevMass, prevLength := l.RemainingQty, l.LengthM
	switch l.Store {
	case StoreGRN:
		l.RemainingQty = math.Max(0, l.RemainingQty-delta)
		l.deriveFromMass(prevMass, prevLength)
	case StoreStock:
		l.LengthM = math.Max(0, l.LengthM-delta)
		l.deriveFromLength(prevMass, prevLength)
	default:
		return fmt.Errorf("decrement lot %s: unsupported store %s", l.ID, l.Store)
	}
	l.Status = StatusFor(l.RemainingQty, l.ReceivedQty)
	return nil
}

// Restore returns delta to the lot, capped at what was originally received.
func (l *Lot) Restore(delta float64) error {
	prevMass, prevLength := l.RemainingQty, l.LengthM
	switch l.Store {
	case StoreGRN:
		l.RemainingQty = l.RemainingQty + delta
		if l.ReceivedQty > 0 && l.RemainingQty > l.ReceivedQty {
			l.RemainingQty = l.ReceivedQty
		}
		l.deriveFromMass(prevMass, prevLength)
	case StoreStock:
		l.LengthM = l.LengthM + delta
		if l.ReceivedLengthM > 0 && l.LengthM > l.ReceivedLengthM {
			l.LengthM = l.ReceivedLengthM
		}
		l.deriveFromLength(prevMass, prevLength)
	default:
		return fmt.Errorf("restore lot %s: unsupported store %s", l.ID, l.Store)
	}
	l.Status = StatusFor(l.RemainingQty, l.ReceivedQty)
	return nil
}

// anchored reports whether the received figures describe the same
// kg-per-metre ratio as the lot held before the change. Lots received part
// way through their life can carry a received length that does not match
// their received mass; those are rescaled from their previous state instead.
func (l *Lot) anchored(prevMass, prevLength float64) bool {
	if l.ReceivedQty <= 0 || l.ReceivedLengthM <= 0 {
		return false
	}
	want := l.ReceivedLengthM * prevMass / l.ReceivedQty
	return math.Abs(want-prevLength) <= 0.01*math.Max(1, prevLength)
}

// deriveFromMass recomputes length and area after the remaining mass changed.
func (l *Lot) deriveFromMass(prevMass, prevLength float64) {
	l.RemainingQty = Round2(l.RemainingQty)
	switch {
	case l.anchored(prevMass, prevLength):
		l.LengthM = l.ReceivedLengthM * l.RemainingQty / l.ReceivedQty
	case prevMass > 0:
		l.LengthM = prevLength * l.RemainingQty / prevMass
	}
	l.LengthM = Round2(l.LengthM)
	l.AreaM2 = Round2(l.LengthM * l.Spec.WidthMM / 1000)
}

// deriveFromLength rescales mass and area to the new running length. When the
// received figures are consistent they anchor the ratio so repeated issues
// and restores do not accumulate rounding error.
func (l *Lot) deriveFromLength(prevMass, prevLength float64) {
	l.LengthM = Round2(l.LengthM)
	switch {
	case l.anchored(prevMass, prevLength):
		l.RemainingQty = l.ReceivedQty * l.LengthM / l.ReceivedLengthM
	case prevLength > 0:
		l.RemainingQty = prevMass * l.LengthM / prevLength
	default:
		l.RemainingQty = 0
	}
	l.RemainingQty = Round2(l.RemainingQty)
	l.AreaM2 = Round2(l.LengthM * l.Spec.WidthMM / 1000)
}
