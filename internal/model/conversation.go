package model

import "time"

// Phase is a step of the conversation state machine
type Phase string

const (
	PhaseAwaitingInput       Phase = "awaiting_input"
	PhaseExtracting          Phase = "extracting"
	PhaseMerging             Phase = "merging"
	PhaseEvaluating          Phase = "evaluating"
	PhaseAskingClarification Phase = "asking_clarification"
	PhaseReadyToSearch       Phase = "ready_to_search"
)

// Signal names the piece of information a clarifying question asks for
type Signal string

const (
	SignalNone       Signal = "none"
	SignalPrice      Signal = "price"
	SignalAttributes Signal = "attributes"
)

// Question is a clarifying question sent to the user
type Question struct {
	Signal Signal `json:"signal"`
	Text   string `json:"text"`
}

// State is everything the controller knows about one conversation. It is
// owned by the caller and passed into every turn.
type State struct {
	ID        string         `json:"id"`
	Filter    Filter         `json:"filter"`
	Turn      int            `json:"turn"`
	Phase     Phase          `json:"phase"`
	Pending   *Question      `json:"pending,omitempty"`
	Asked     map[Signal]int `json:"asked,omitempty"`
	Declined  []Signal       `json:"declined,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewState starts a conversation with an empty filter
func NewState(id string) *State {
	now := time.Now()
	return &State{
		ID:        id,
		Phase:     PhaseAwaitingInput,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset drops the accumulated filter and clarification bookkeeping
func (s *State) Reset() {
	s.Filter = Filter{}
	s.Phase = PhaseAwaitingInput
	s.Pending = nil
	s.Asked = nil
	s.Declined = nil
}

// HasDeclined reports whether the user waived the given signal
func (s *State) HasDeclined(sig Signal) bool {
	for _, d := range s.Declined {
		if d == sig {
			return true
		}
	}
	return false
}

// ReplyKind classifies the controller's next action
type ReplyKind string

const (
	ReplyQuestion    ReplyKind = "question"
	ReplyResults     ReplyKind = "results"
	ReplyMessage     ReplyKind = "message"
	ReplyUnavailable ReplyKind = "unavailable"
)

// Reply is the outcome of one conversation turn
type Reply struct {
	Kind    ReplyKind     `json:"kind"`
	Message string        `json:"message"`
	Signal  Signal        `json:"signal,omitempty"`
	Filter  Filter        `json:"filter"`
	Results []PhoneResult `json:"results,omitempty"`
	Total   int           `json:"total"`
	Forced  bool          `json:"forced,omitempty"` // searched before the filter was complete
	Turn    int           `json:"turn"`
}
