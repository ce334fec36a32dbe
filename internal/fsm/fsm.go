package fsm

import (
	"renTrentoBack/internal/models"
)

var transitions = map[string]map[string]struct{}{
	models.RentalActive: {
		models.RentalFinished:  {},
		models.RentalNotActive: {},
	},
	models.RentalFinished:  {},
	models.RentalNotActive: {},
}

// Valid reports whether status is a known rental status.
func Valid(status string) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition returns whether a rental can move from the current status to the target status.
func CanTransition(from, to string) bool {
	if from == to {
		return Valid(from)
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Terminal reports whether no transition leaves status.
func Terminal(status string) bool {
	return len(transitions[status]) == 0
}
