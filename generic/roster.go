package generic

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROSTER - Person management
// =============================================================================

// AddPerson appends a new hourly person with zero wages. The name is trimmed
// and must not be empty.
func (e *Engine) AddPerson(name string) (Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Person{}, ErrEmptyName
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := Person{
		ID:          PersonID(e.newID()),
		Name:        name,
		PayType:     PayHourly,
		HourlyWage:  decimal.Zero,
		MonthlyBase: decimal.Zero,
		CreatedAt:   e.now().UnixMilli(),
	}
	e.roster = append(e.roster, p)
	return p, nil
}

// UpdatePay edits a person's pay fields. Negative amounts are stored as zero.
func (e *Engine) UpdatePay(id PersonID, u PayUpdate) (Person, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return Person{}, fmt.Errorf("%w: %s", ErrPersonNotFound, id)
	}
	p := &e.roster[i]
	if u.PayType != nil {
		p.PayType = ParsePayType(string(*u.PayType))
	}
	if u.HourlyWage != nil {
		p.HourlyWage = nonNegative(*u.HourlyWage)
	}
	if u.MonthlyBase != nil {
		p.MonthlyBase = nonNegative(*u.MonthlyBase)
	}
	return *p, nil
}

// DeletePerson removes a person from the roster together with their records
// and log entries on every date. Undo entries targeting them are dropped too,
// so undo can never resurrect a record for a person who no longer exists.
func (e *Engine) DeletePerson(id PersonID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPersonNotFound, id)
	}
	e.roster = append(e.roster[:i], e.roster[i+1:]...)

	for _, b := range e.byDate {
		delete(b.Records, id)
		kept := b.Logs[:0]
		for _, l := range b.Logs {
			if l.PersonID != id {
				kept = append(kept, l)
			}
		}
		b.Logs = kept
	}
	e.undo.DropPerson(id)
	return nil
}

// People returns the roster in insertion order.
func (e *Engine) People() []Person {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.peopleLocked()
}

func (e *Engine) Person(id PersonID) (Person, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.findPerson(id)
}

func (e *Engine) peopleLocked() []Person {
	out := make([]Person, len(e.roster))
	copy(out, e.roster)
	return out
}

func (e *Engine) indexOf(id PersonID) int {
	for i, p := range e.roster {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) findPerson(id PersonID) (Person, bool) {
	if i := e.indexOf(id); i >= 0 {
		return e.roster[i], true
	}
	return Person{}, false
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
