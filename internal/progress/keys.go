package progress

import (
	"net/url"
	"strings"
)

const keyPrefix = "examtrainer"

// Namespace separates one user's local records from another's.
type Namespace string

// GuestNamespace is shared by every guest session and can never equal a
// UserNamespace.
const GuestNamespace Namespace = "guest"

func UserNamespace(userID string) Namespace {
	return Namespace("user-" + url.QueryEscape(userID))
}

type Category string

const (
	CategoryTrainer           Category = "trainer"
	CategorySimulation        Category = "simulation"
	CategoryAttempts          Category = "attempts"
	CategoryTrainerIndex      Category = "trainer-index"
	CategorySimulationIndex   Category = "simulation-index"
	CategoryTrainerDeleted    Category = "trainer-deleted"
	CategorySimulationDeleted Category = "simulation-deleted"
	CategoryAttemptsDeleted   Category = "attempts-deleted"
)

type Key string

// KeyFor builds examtrainer:<namespace>:<category>[:<block>]. The block is
// escaped so it cannot forge another segment.
func KeyFor(ns Namespace, c Category, block string) Key {
	parts := []string{keyPrefix, string(ns), string(c)}
	if block != "" {
		parts = append(parts, url.QueryEscape(block))
	}
	return Key(strings.Join(parts, ":"))
}

// modeKeys groups the categories one progress mode uses.
type modeKeys struct {
	record  Category
	index   Category
	deleted Category
}

var trainerKeys = modeKeys{CategoryTrainer, CategoryTrainerIndex, CategoryTrainerDeleted}
var simulationKeys = modeKeys{CategorySimulation, CategorySimulationIndex, CategorySimulationDeleted}
