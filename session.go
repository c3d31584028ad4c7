/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"

	"github.com/Seednode/sizeconv/units"
)

// Session is the converter state shown to the user: what is typed in the
// value box, the two selected units, and the last result that converted
// cleanly. A failed conversion never replaces the stored result.
type Session struct {
	mu sync.RWMutex

	input  string
	from   units.Unit
	to     units.Unit
	result *units.Result
}

type SessionState struct {
	Input     string
	From      units.Unit
	To        units.Unit
	Result    units.Result
	HasResult bool
}

func newSession(input string, from, to units.Unit) *Session {
	return &Session{
		input: input,
		from:  from,
		to:    to,
	}
}

func (s *Session) SetInput(input string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = input
}

func (s *Session) SetUnits(from, to units.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.from = from
	s.to = to
}

func (s *Session) Convert() (units.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.convertLocked()
}

// Adjust steps the input by step and converts again. On invalid input
// nothing changes.
func (s *Session) Adjust(step int) (units.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := units.Adjust(s.input, step)
	if err != nil {
		return units.Result{}, err
	}
	s.input = next

	return s.convertLocked()
}

// AdjustFrom steps input instead of the stored value and converts it
// between the given units. The session takes on all three only if input
// is valid.
func (s *Session) AdjustFrom(input string, from, to units.Unit, step int) (units.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := units.Adjust(input, step)
	if err != nil {
		return units.Result{}, err
	}
	s.input, s.from, s.to = next, from, to

	return s.convertLocked()
}

func (s *Session) convertLocked() (units.Result, error) {
	res, err := units.ConvertString(s.input, s.from, s.to)
	if err != nil {
		return units.Result{}, err
	}
	s.result = &res

	return res, nil
}

func (s *Session) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := SessionState{
		Input: s.input,
		From:  s.from,
		To:    s.to,
	}
	if s.result != nil {
		state.Result = *s.result
		state.HasResult = true
	}

	return state
}
