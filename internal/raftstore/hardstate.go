package raftstore

// HardState is the minimal per-term persistent record a consensus node needs
// to avoid voting twice in the same term after a restart. Legality of a
// term/vote transition is the consensus engine's business; this type only
// holds the scalars.
type HardState struct {
	CurrentTerm uint32  `json:"current_term"`
	VotedFor    *uint32 `json:"voted_for,omitempty"`
}

// Vote returns the granted vote for the current term, if any.
func (h *HardState) Vote() (uint32, bool) {
	if h.VotedFor == nil {
		return 0, false
	}
	return *h.VotedFor, true
}

// SetVote records a vote for the given node id.
func (h *HardState) SetVote(id uint32) {
	h.VotedFor = &id
}

// ClearVote resets the vote to absent.
func (h *HardState) ClearVote() {
	h.VotedFor = nil
}
