package domain

import "fmt"

// Wire is a directed connection between two ports
type Wire struct {
	ID string

	from, to *Port
	group    *Group
}

// Connect creates a wire from an output port to an input port and registers
// it on both ports. The wire is not owned by any group until it is re-homed
// with RehomeWire or added with AddWire.
func Connect(id string, from, to *Port) (*Wire, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("connect %s: %w", id, ErrDisconnected)
	}
	if from.Input || !to.Input {
		return nil, fmt.Errorf("connect %s: %w", id, ErrPortDirection)
	}
	w := &Wire{ID: id, from: from, to: to}
	from.attach(w)
	to.attach(w)
	return w, nil
}

// From returns the source port
func (w *Wire) From() *Port { return w.from }

// To returns the destination port
func (w *Wire) To() *Port { return w.to }

// Group returns the group the wire currently lives in
func (w *Wire) Group() *Group { return w.group }

// Disconnect unregisters the wire from both ports. The caller is expected to
// have removed it from its group first.
func (w *Wire) Disconnect() {
	w.from.detach(w)
	w.to.detach(w)
}

// endpointGroups returns the groups owning the source and destination items
func (w *Wire) endpointGroups() (*Group, *Group) {
	return w.from.item.group, w.to.item.group
}
