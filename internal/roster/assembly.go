// Package roster holds the assembly state machine that drives one event
// roster from configuration through accumulation to a finalized, persisted
// snapshot. The TUI owns which screen is shown; this package owns whether a
// transition is legal.
package roster

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aksoyhq/dutyroster/internal/model"
)

// State is the lifecycle position of one Assembly.
type State int

const (
	// StateConfiguring: event name and target count not yet fixed.
	StateConfiguring State = iota
	// StateAccumulating: personnel are being added, target not yet met.
	StateAccumulating
	// StateTargetReached: the roster holds exactly the target count.
	StateTargetReached
	// StateFinalized: the roster has been snapshotted into a CompletedEvent.
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateAccumulating:
		return "accumulating"
	case StateTargetReached:
		return "target-reached"
	case StateFinalized:
		return "finalized"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrInvalidEvent rejects a Configure call with an empty name or a target
// below one.
var ErrInvalidEvent = errors.New("event name and a target of at least 1 are required")

// Option customizes Assembly construction for tests and alternate runtimes.
type Option func(*Assembly)

// WithClock overrides the time source used for creation and save stamps.
func WithClock(now func() time.Time) Option {
	return func(a *Assembly) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator overrides the CompletedEvent id source.
func WithIDGenerator(gen func() string) Option {
	return func(a *Assembly) {
		if gen != nil {
			a.newID = gen
		}
	}
}

// Assembly is a roster-in-progress. It is not safe for concurrent use; one
// interactive operator drives it and all mutations are synchronous.
type Assembly struct {
	state     State
	event     model.EventDetails
	entries   []model.Personnel
	pendingID string

	now   func() time.Time
	newID func() string
}

// New returns an empty assembly in StateConfiguring.
func New(opts ...Option) *Assembly {
	a := &Assembly{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Configure fixes the event name and target headcount and stamps the
// creation time. Name and target are immutable afterwards; the only way to
// change them is Discard.
func (a *Assembly) Configure(name string, target int) error {
	if a.state != StateConfiguring {
		return fmt.Errorf("configure: assembly is %s", a.state)
	}
	name = strings.TrimSpace(name)
	if name == "" || target < 1 {
		return ErrInvalidEvent
	}
	a.event = model.EventDetails{
		Name:      name,
		Target:    target,
		CreatedAt: a.now(),
	}
	a.state = StateAccumulating
	return nil
}

// Add appends one personnel record. A sicil already on the roster is
// rejected with model.ErrDuplicateEntry and changes nothing, not even the
// order. The add that brings the roster to the target count flips the state
// to StateTargetReached on that exact call.
func (a *Assembly) Add(p model.Personnel) error {
	if a.state != StateAccumulating {
		return fmt.Errorf("add: assembly is %s", a.state)
	}
	if a.Has(p.Sicil) {
		return model.ErrDuplicateEntry
	}
	a.entries = append(a.entries, p)
	if len(a.entries) >= a.event.Target {
		a.state = StateTargetReached
	}
	return nil
}

// Remove deletes the entry with the given sicil, reporting whether anything
// was removed. Removal is legal while accumulating and after the target has
// been reached; dropping below the target demotes the state back to
// StateAccumulating.
func (a *Assembly) Remove(sicil string) bool {
	if a.state != StateAccumulating && a.state != StateTargetReached {
		return false
	}
	for i, p := range a.entries {
		if p.Sicil == sicil {
			a.entries = append(a.entries[:i], a.entries[i+1:]...)
			if a.state == StateTargetReached && len(a.entries) < a.event.Target {
				a.state = StateAccumulating
			}
			return true
		}
	}
	return false
}

// Finalize snapshots the roster into a CompletedEvent. It is a one-shot
// action: a second call on the same assembly fails with
// model.ErrAlreadyFinalized so a completion is never persisted twice by the
// application flow. Reopen is the only way back.
func (a *Assembly) Finalize() (model.CompletedEvent, error) {
	switch a.state {
	case StateFinalized:
		return model.CompletedEvent{}, model.ErrAlreadyFinalized
	case StateTargetReached:
	default:
		return model.CompletedEvent{}, fmt.Errorf("finalize: assembly is %s", a.state)
	}
	if a.pendingID == "" {
		a.pendingID = a.newID()
	}
	ev := model.CompletedEvent{
		ID:        a.pendingID,
		SavedAt:   a.now(),
		EventName: a.event.Name,
		Personnel: a.Entries(),
	}
	a.state = StateFinalized
	return ev, nil
}

// Reopen returns a finalized assembly to StateTargetReached so a failed
// persist can be retried. The snapshot keeps its id across Finalize calls,
// so a retried save overwrites the same record instead of duplicating it.
// On any other state Reopen is a no-op.
func (a *Assembly) Reopen() {
	if a.state == StateFinalized {
		a.state = StateTargetReached
	}
}

// Discard throws away the roster-in-progress and returns to StateConfiguring.
// Nothing is persisted.
func (a *Assembly) Discard() {
	a.state = StateConfiguring
	a.event = model.EventDetails{}
	a.entries = nil
	a.pendingID = ""
}

// Restore rehydrates an assembly from a previously captured session
// snapshot. A snapshot without a configured event leaves the assembly in
// StateConfiguring; one at or above target resumes in StateTargetReached.
func (a *Assembly) Restore(event model.EventDetails, entries []model.Personnel) {
	a.Discard()
	if strings.TrimSpace(event.Name) == "" || event.Target < 1 {
		return
	}
	a.event = event
	a.entries = append([]model.Personnel(nil), entries...)
	if len(a.entries) >= event.Target {
		a.state = StateTargetReached
	} else {
		a.state = StateAccumulating
	}
}

// State returns the current lifecycle position.
func (a *Assembly) State() State { return a.state }

// Event returns the fixed event details (zero value while configuring).
func (a *Assembly) Event() model.EventDetails { return a.event }

// Target returns the configured headcount.
func (a *Assembly) Target() int { return a.event.Target }

// Len returns the number of entries on the roster.
func (a *Assembly) Len() int { return len(a.entries) }

// Entries returns a copy of the roster in add order.
func (a *Assembly) Entries() []model.Personnel {
	return append([]model.Personnel(nil), a.entries...)
}

// Has reports whether the sicil is already on the roster.
func (a *Assembly) Has(sicil string) bool {
	for _, p := range a.entries {
		if p.Sicil == sicil {
			return true
		}
	}
	return false
}
