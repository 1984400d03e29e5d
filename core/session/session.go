// Package session holds the mutable state of one dashboard session: the
// accounts, the id counter, the cooldown and the last image count.
package session

import (
	"sync"
	"time"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/scheduler"
	"github.com/kilianp07/chargeplan/internal/eventbus"
)

// ErrInvalidAccount is returned by Add and Update when charges break the
// account invariants.
var ErrInvalidAccount = model.ErrInvalidAccount

// EventType identifies a session mutation.
type EventType string

const (
	EventAccountAdded   EventType = "account_added"
	EventAccountUpdated EventType = "account_updated"
	EventAccountRemoved EventType = "account_removed"
	EventImageCounted   EventType = "image_counted"
)

// Event is published on the session bus after every mutation.
type Event struct {
	Type    EventType     `json:"type"`
	Account model.Account `json:"account"`
	Pixels  int           `json:"pixels,omitempty"`
	Time    time.Time     `json:"time"`
}

// Option configures a Session.
type Option func(*Session)

// WithBus publishes session events on bus.
func WithBus(bus *eventbus.Bus[Event]) Option {
	return func(s *Session) { s.bus = bus }
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is safe for concurrent use. Reads return copies.
type Session struct {
	mu       sync.RWMutex
	accounts []model.Account
	nextID   int
	image    model.ImageStats

	sched *scheduler.Scheduler
	bus   *eventbus.Bus[Event]
	now   func() time.Time
}

// New creates an empty session with the given cooldown in seconds.
func New(cooldown int, opts ...Option) (*Session, error) {
	sched, err := scheduler.New(cooldown)
	if err != nil {
		return nil, err
	}
	s := &Session{nextID: 1, sched: sched, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Seed adds every account in order. Seed ids are ignored; the session assigns its own.
func (s *Session) Seed(accounts []model.Account) error {
	for _, a := range accounts {
		if _, err := s.Add(a.Name, a.Current, a.Max); err != nil {
			return err
		}
	}
	return nil
}

// Add creates an account with the next sequential id.
func (s *Session) Add(name string, current, max int) (model.Account, error) {
	if err := model.ValidateCharges(current, max); err != nil {
		return model.Account{}, err
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	acc := model.Account{ID: id, Name: model.NormalizeName(name, id), Current: current, Max: max}
	s.accounts = append(s.accounts, acc)
	s.mu.Unlock()
	s.publish(Event{Type: EventAccountAdded, Account: acc})
	return acc, nil
}

// Update replaces the charges of account id. A missing id is ignored.
func (s *Session) Update(id, current, max int) error {
	if err := model.ValidateCharges(current, max); err != nil {
		return err
	}
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.accounts[i].Current = current
	s.accounts[i].Max = max
	acc := s.accounts[i]
	s.mu.Unlock()
	s.publish(Event{Type: EventAccountUpdated, Account: acc})
	return nil
}

// Delete removes account id. A missing id is ignored.
func (s *Session) Delete(id int) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	acc := s.accounts[i]
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	s.mu.Unlock()
	s.publish(Event{Type: EventAccountRemoved, Account: acc})
}

// Get returns account id.
func (s *Session) Get(id int) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.accounts[i], true
	}
	return model.Account{}, false
}

// List returns the accounts in creation order.
func (s *Session) List() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Scheduler returns the calculator bound to the session cooldown.
func (s *Session) Scheduler() *scheduler.Scheduler { return s.sched }

// Cooldown returns the seconds needed to regenerate one charge.
func (s *Session) Cooldown() int { return s.sched.Cooldown() }

// SetImageStats caches the pixel count of the last decoded image.
func (s *Session) SetImageStats(st model.ImageStats) {
	s.mu.Lock()
	s.image = st
	s.mu.Unlock()
	s.publish(Event{Type: EventImageCounted, Pixels: st.Pixels})
}

// ImageStats returns the cached image pixel count.
func (s *Session) ImageStats() model.ImageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}

func (s *Session) index(id int) int {
	for i, a := range s.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) publish(ev Event) {
	if s.bus == nil {
		return
	}
	ev.Time = s.now()
	s.bus.Publish(ev)
}
