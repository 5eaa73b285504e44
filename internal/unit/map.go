// internal/unit/map.go
package unit

import (
	"fmt"
	"sort"
)

// Map is a bidirectional map between inputs and unit handles.
type Map struct {
	byInput  map[Input]Handle
	byHandle map[Handle]Input
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{
		byInput:  make(map[Input]Handle),
		byHandle: make(map[Handle]Input),
	}
}

// Set associates in with h, replacing any previous association of either side.
func (m *Map) Set(in Input, h Handle) error {
	if h.IsZero() {
		return fmt.Errorf("cannot map input %s to the empty handle", in)
	}
	if old, ok := m.byInput[in]; ok {
		delete(m.byHandle, old)
	}
	if old, ok := m.byHandle[h]; ok {
		delete(m.byInput, old)
	}
	m.byInput[in] = h
	m.byHandle[h] = in
	return nil
}

// Handle returns the handle mapped to in.
func (m *Map) Handle(in Input) (Handle, bool) {
	h, ok := m.byInput[in]
	return h, ok
}

// Input returns the input mapped to h.
func (m *Map) Input(h Handle) (Input, bool) {
	in, ok := m.byHandle[h]
	return in, ok
}

// Len returns the number of associations.
func (m *Map) Len() int {
	return len(m.byInput)
}

// Inputs returns all mapped inputs sorted by path.
func (m *Map) Inputs() []Input {
	inputs := make([]Input, 0, len(m.byInput))
	for in := range m.byInput {
		inputs = append(inputs, in)
	}
	SortInputs(inputs)
	return inputs
}

// SortInputs sorts inputs by path, then type.
func SortInputs(inputs []Input) {
	sort.Slice(inputs, func(i, j int) bool {
		if inputs[i].File != inputs[j].File {
			return inputs[i].File < inputs[j].File
		}
		return inputs[i].Type < inputs[j].Type
	})
}

// SortHandles sorts handles by summary path.
func SortHandles(handles []Handle) {
	sort.Slice(handles, func(i, j int) bool {
		return handles[i].file < handles[j].file
	})
}

// Delete removes in and its handle.
func (m *Map) Delete(in Input) {
	if h, ok := m.byInput[in]; ok {
		delete(m.byHandle, h)
		delete(m.byInput, in)
	}
}
