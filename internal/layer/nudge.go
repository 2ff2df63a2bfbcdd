package layer

// Nudge is a fine positional adjustment for one stamped field instance,
// expressed as fractions of the page size so the same payload works at any
// page dimensions. Positive DXRatio moves right, positive DYRatio moves
// down the page, matching the editor's top-left origin.
type Nudge struct {
	DXRatio float64 `json:"dxRatio"`
	DYRatio float64 `json:"dyRatio"`
}

// NudgeSet accumulates nudges for a single render request, keyed by the
// detected region's instance id so two boxes carrying the same label adjust
// independently. Repeated nudges for the same instance add up, so a client
// can send a stream of small adjustments and get the sum applied. Nudges
// are request-scoped and never persisted with the template.
type NudgeSet map[string]Nudge

// Add accumulates an adjustment for the given field instance.
func (n NudgeSet) Add(instanceID string, dxRatio, dyRatio float64) {
	cur := n[instanceID]
	n[instanceID] = Nudge{DXRatio: cur.DXRatio + dxRatio, DYRatio: cur.DYRatio + dyRatio}
}

// Get returns the accumulated adjustment for a field instance, zero if none.
func (n NudgeSet) Get(instanceID string) Nudge {
	return n[instanceID]
}
