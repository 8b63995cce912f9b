package catalog

// PanelKind is the detail panel shown under an edition row.
type PanelKind string

const (
	PanelNone      PanelKind = ""
	PanelTracklist PanelKind = "tracklist"
	PanelInfo      PanelKind = "info"
)

// ParsePanelKind accepts the route segment of a detail request.
func ParsePanelKind(s string) (PanelKind, bool) {
	switch s {
	case "tracklist", "track":
		return PanelTracklist, true
	case "info":
		return PanelInfo, true
	}
	return PanelNone, false
}

// ModalState tracks which work the detail modal shows and which panel is
// open for each of its editions. At most one panel per edition is open.
type ModalState struct {
	WorkID string               `json:"work,omitempty"`
	Panels map[string]PanelKind `json:"panels,omitempty"`
}

// OpenModal starts a fresh state for a work with every panel closed.
func OpenModal(workID string) ModalState {
	return ModalState{WorkID: workID}
}

// IsOpen reports whether the modal shows a work.
func (m ModalState) IsOpen() bool { return m.WorkID != "" }

// Panel returns the open panel of an edition.
func (m ModalState) Panel(editionID string) PanelKind {
	if m.Panels == nil {
		return PanelNone
	}
	return m.Panels[editionID]
}

// Toggle requests a panel for an edition. Requesting the open panel closes
// it; requesting the other one switches to it.
func (m *ModalState) Toggle(editionID string, kind PanelKind) PanelKind {
	if m.Panel(editionID) == kind {
		delete(m.Panels, editionID)
		return PanelNone
	}
	if kind == PanelNone {
		delete(m.Panels, editionID)
		return PanelNone
	}
	if m.Panels == nil {
		m.Panels = make(map[string]PanelKind)
	}
	m.Panels[editionID] = kind
	return kind
}

// Close dismisses the modal and discards all panel state.
func (m *ModalState) Close() {
	m.WorkID = ""
	m.Panels = nil
}
