package routing

// DialOutcome is the carrier-reported result of one dial attempt.
//
// These are not errors of this system; they are first-class routing inputs.
// busy/failed/canceled mean the client actively rejected or the leg broke,
// so they must never be retried.

type DialOutcome string

const (
	OutcomeCompleted DialOutcome = "completed"
	OutcomeNoAnswer  DialOutcome = "no-answer"
	OutcomeBusy      DialOutcome = "busy"
	OutcomeFailed    DialOutcome = "failed"
	OutcomeCanceled  DialOutcome = "canceled"
)

// Terminal reports whether the outcome should skip the retry loop.
func (o DialOutcome) Terminal() bool {
	switch o {
	case OutcomeBusy, OutcomeFailed, OutcomeCanceled:
		return true
	default:
		return false
	}
}

// Unanswered reports whether the caller never reached a human or client.
func (o DialOutcome) Unanswered() bool {
	switch o {
	case OutcomeNoAnswer, OutcomeBusy, OutcomeFailed, OutcomeCanceled:
		return true
	default:
		return false
	}
}

// State is the position of one inbound call in the ring/voicemail flow.
//
// There is no server-side session store: the only state that survives a hop
// is the attempt counter, carried as a query parameter on the callback URL we
// hand back to the carrier. Each webhook decodes its fields into a State,
// runs Next, and encodes the result as the next call-control document.
type State interface {
	isState()
}

// Attempting means we are ringing the software client for the Nth time.
type Attempting struct {
	N int
}

// Redirecting means a single ring of the configured redirect number is in
// flight. No retry loop applies: the target is a human-operated line.
type Redirecting struct{}

// Answered is terminal; the call is bridged and needs no further instruction.
type Answered struct{}

// Exhausted is terminal for ringing; the call falls over to voicemail.
type Exhausted struct{}

func (Attempting) isState()  {}
func (Redirecting) isState() {}
func (Answered) isState()    {}
func (Exhausted) isState()   {}

// Next is the pure transition function of the retry state machine.
//
// From Attempting(n):
//   - completed            -> Answered
//   - no-answer, n < max   -> Attempting(n+1)
//   - no-answer, n = max   -> Exhausted
//   - busy/failed/canceled -> Exhausted (active rejection, do not retry)
//
// From Redirecting every unanswered outcome goes straight to Exhausted.
// Terminal states transition to themselves.
func Next(s State, outcome DialOutcome) State {
	switch st := s.(type) {
	case Attempting:
		switch {
		case outcome == OutcomeCompleted:
			return Answered{}
		case outcome == OutcomeNoAnswer && st.N < MaxAttempts:
			return Attempting{N: st.N + 1}
		default:
			return Exhausted{}
		}
	case Redirecting:
		if outcome == OutcomeCompleted {
			return Answered{}
		}
		return Exhausted{}
	default:
		return s
	}
}
