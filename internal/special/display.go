// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package special

import "sync"

// Display holds the flags shared by meta-commands, the executor and the
// output layer.
type Display struct {
	mu             sync.Mutex
	expanded       bool
	expandedOnce   bool
	timing         bool
	outputLocation string
}

// SetExpanded requests expanded output for the next result.
func (d *Display) SetExpanded(on bool) {
	d.mu.Lock()
	d.expandedOnce = on
	d.mu.Unlock()
}

// ToggleExpanded flips persistent expanded output and returns the new value.
func (d *Display) ToggleExpanded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expanded = !d.expanded
	return d.expanded
}

// ConsumeExpanded reports whether the next result should be shown expanded
// and clears a one-shot request.
func (d *Display) ConsumeExpanded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	on := d.expanded || d.expandedOnce
	d.expandedOnce = false
	return on
}

// SetTiming turns the timing line on or off.
func (d *Display) SetTiming(on bool) {
	d.mu.Lock()
	d.timing = on
	d.mu.Unlock()
}

// ToggleTiming flips the timing line and returns the new value.
func (d *Display) ToggleTiming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timing = !d.timing
	return d.timing
}

func (d *Display) Timing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timing
}

// SetOutputLocation records where the engine stored the last result.
func (d *Display) SetOutputLocation(location string) {
	d.mu.Lock()
	d.outputLocation = location
	d.mu.Unlock()
}

func (d *Display) OutputLocation() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outputLocation
}
