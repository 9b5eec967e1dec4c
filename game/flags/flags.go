// Package flags holds named world switches and variables shared by
// dialogue availability checks, quest triggers, and scripted events.
package flags

import (
	"encoding/json"
	"sync"
)

// Flags is the authoritative switch/variable table. Switches are named
// booleans, variables named integers. Unset entries read as zero values.
type Flags struct {
	mu        sync.RWMutex
	switches  map[string]bool
	variables map[string]int
}

// New creates an empty Flags table.
func New() *Flags {
	return &Flags{
		switches:  make(map[string]bool),
		variables: make(map[string]int),
	}
}

// Switch reports the value of a named switch. Unknown names are false.
func (f *Flags) Switch(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.switches[name]
}

// SetSwitch sets a named switch.
func (f *Flags) SetSwitch(name string, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switches[name] = on
}

// Variable returns the value of a named variable. Unknown names are 0.
func (f *Flags) Variable(name string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.variables[name]
}

// SetVariable sets a named variable.
func (f *Flags) SetVariable(name string, value int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variables[name] = value
}

// AddVariable adjusts a named variable by delta and returns the new value.
func (f *Flags) AddVariable(name string, delta int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variables[name] += delta
	return f.variables[name]
}

// Reset clears every switch and variable.
func (f *Flags) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switches = make(map[string]bool)
	f.variables = make(map[string]int)
}

// ---- Save participation ----

type payload struct {
	Switches  map[string]bool `json:"switches"`
	Variables map[string]int  `json:"variables"`
}

// SaveKey identifies the flag table inside snapshots.
func (f *Flags) SaveKey() string { return "flags" }

// CapturePayload serializes the full table.
func (f *Flags) CapturePayload() (json.RawMessage, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return json.Marshal(payload{Switches: f.switches, Variables: f.variables})
}

// RestorePayload replaces the table with the snapshot contents.
func (f *Flags) RestorePayload(raw json.RawMessage) error {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switches = p.Switches
	f.variables = p.Variables
	if f.switches == nil {
		f.switches = make(map[string]bool)
	}
	if f.variables == nil {
		f.variables = make(map[string]int)
	}
	return nil
}
