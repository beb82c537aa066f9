package viewstate

import (
	"github.com/aretw0/introspection"
)

// ListHolderState exposes list holder internals for observability.
type ListHolderState struct {
	Listed         int     `json:"listed"`
	Pending        []int64 `json:"pending"`
	Hidden         int     `json:"hidden"`
	Timers         int     `json:"timers"`
	Observers      int     `json:"observers"`
	UpstreamActive bool    `json:"upstream_active"`
	Closed         bool    `json:"closed"`
}

// State implements introspection.Introspectable.
func (h *ListHolder) State() any {
	h.mu.Lock()
	hidden := 0
	for _, v := range h.vis {
		if v == Hidden {
			hidden++
		}
	}
	closed := h.closed
	h.mu.Unlock()

	snap := h.state.Value()
	return ListHolderState{
		Listed:         len(snap.Notes),
		Pending:        snap.Pending,
		Hidden:         hidden,
		Timers:         h.pending.len(),
		Observers:      h.shared.Refs(),
		UpstreamActive: h.shared.Active(),
		Closed:         closed,
	}
}

// ComponentType implements introspection.Component.
func (h *ListHolder) ComponentType() string {
	return "list-holder"
}

// FormHolderState exposes entry and edit holder internals for observability.
type FormHolderState struct {
	ID      int64  `json:"id,omitempty"`
	Phase   string `json:"phase"`
	Valid   bool   `json:"valid"`
	Edited  bool   `json:"edited,omitempty"`
	Loading bool   `json:"loading,omitempty"`
}

// State implements introspection.Introspectable.
func (h *EntryHolder) State() any {
	s := h.state.Value()
	return FormHolderState{
		ID:    s.Draft.ID,
		Phase: s.Phase.String(),
		Valid: s.Valid,
	}
}

// ComponentType implements introspection.Component.
func (h *EntryHolder) ComponentType() string {
	return "entry-holder"
}

// State implements introspection.Introspectable.
func (h *EditHolder) State() any {
	s := h.state.Value()
	h.mu.Lock()
	edited := h.edited
	h.mu.Unlock()
	return FormHolderState{
		ID:      h.id,
		Phase:   s.Phase.String(),
		Valid:   s.Valid,
		Edited:  edited,
		Loading: h.loading(),
	}
}

// ComponentType implements introspection.Component.
func (h *EditHolder) ComponentType() string {
	return "edit-holder"
}

// DetailHolderState exposes detail holder internals for observability.
type DetailHolderState struct {
	ID             int64 `json:"id"`
	Loaded         bool  `json:"loaded"`
	Observers      int   `json:"observers"`
	UpstreamActive bool  `json:"upstream_active"`
}

// State implements introspection.Introspectable.
func (h *DetailHolder) State() any {
	return DetailHolderState{
		ID:             h.id,
		Loaded:         h.state.Value().Loaded,
		Observers:      h.shared.Refs(),
		UpstreamActive: h.shared.Active(),
	}
}

// ComponentType implements introspection.Component.
func (h *DetailHolder) ComponentType() string {
	return "detail-holder"
}

var (
	_ introspection.Introspectable = (*ListHolder)(nil)
	_ introspection.Introspectable = (*EntryHolder)(nil)
	_ introspection.Introspectable = (*EditHolder)(nil)
	_ introspection.Introspectable = (*DetailHolder)(nil)
	_ introspection.Component      = (*ListHolder)(nil)
)
