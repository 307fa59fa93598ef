package routing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tunables of the ring/voicemail flow.
//
// The per-attempt ring primitive is unreliable beyond a short window for
// software clients, so a long ring is emulated by chaining short attempts:
// total effective ring time is roughly MaxAttempts * (AttemptTimeout + pause).
const (
	MaxAttempts = 10

	// AttemptTimeout is the ring window for one software-client attempt.
	AttemptTimeout = 5 * time.Second

	// RedirectTimeout is the single ring window for a redirect number.
	RedirectTimeout = 30 * time.Second

	// RecordMaxLength bounds a voicemail recording.
	RecordMaxLength = 300 * time.Second
)

// Callback paths named in the instructions we emit. The carrier resolves
// relative action URLs against the webhook it just invoked.
const (
	PathVoiceApp    = "/voice/twiml-app"
	PathDialClient  = "/voice/dial-client"
	PathDialResult  = "/voice/dial-result"
	PathCallTimeout = "/voice/call-timeout"
	PathDialStatus  = "/voice/dial-status"
	PathCallStatus  = "/voice/status"
	PathRecording   = "/voice/recording"

	AttemptParam = "attempt"
)

// CallEvent is the immutable per-call envelope the carrier repeats on every
// callback for a given call.
type CallEvent struct {
	CallID    string
	From      string
	To        string
	Direction string
}

// Config is the process-wide routing configuration, loaded once at startup
// and read-only thereafter.
type Config struct {
	// PhoneNumber is the provisioned number owned by this system (E.164).
	PhoneNumber string

	// RedirectNumber, when set, is rung instead of the software client.
	RedirectNumber string

	// VoicemailPrompt is spoken before recording starts.
	VoicemailPrompt string

	// ClientIdentity is the registered software client to ring.
	ClientIdentity string
}

// Action is the kind of call-control instruction a Decision asks for.
type Action string

const (
	// ActionNone renders an empty document: the call is already handled.
	ActionNone Action = "none"

	// ActionSay speaks Say and lets the call end.
	ActionSay Action = "say"

	// ActionDialClient rings the software client, optionally preceded by a
	// spoken filler and a pause.
	ActionDialClient Action = "dial-client"

	// ActionDialNumber rings a PSTN number.
	ActionDialNumber Action = "dial-number"

	// ActionRecord speaks Say and then records the caller.
	ActionRecord Action = "record"

	// ActionRedirect hands the call to another callback of this system.
	ActionRedirect Action = "redirect"
)

// Decision is the engine's provider-agnostic output. It carries only what
// the call-control document builder needs; no provider types leak in here.
type Decision struct {
	Action Action

	// Say is spoken before the primary verb (the whole response for ActionSay).
	Say string

	// PauseSeconds inserts a pause between Say and the dial verb.
	PauseSeconds int

	// Target is the client identity or number for dial actions.
	Target string

	// CallerID overrides the caller ID on outbound bridges.
	CallerID string

	// Timeout bounds a dial attempt.
	Timeout time.Duration

	// CallbackURL is the action URL invoked when the verb completes.
	CallbackURL string

	// MaxLength bounds a recording.
	MaxLength time.Duration

	// RedirectURL is the target of ActionRedirect.
	RedirectURL string

	// Reason is for logs only.
	Reason string
}

// Engine decides the next call-control instruction for every webhook hop.
// It is pure: no I/O, no clocks, no side effects. Notifications are the
// caller's concern.
type Engine struct {
	cfg Config
}

// defaultVoicemailPrompt is spoken when no prompt is configured.
const defaultVoicemailPrompt = "We are unable to take your call right now. Please leave a message after the tone."

func NewEngine(cfg Config) *Engine {
	if cfg.VoicemailPrompt == "" {
		cfg.VoicemailPrompt = defaultVoicemailPrompt
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// connectingFiller gives the caller audible feedback while the client device
// is paged. Its length adds to the effective ring time per attempt.
const connectingFiller = "Please hold while we connect you."

// RouteIncoming decides the first hop for a new call.
func (e *Engine) RouteIncoming(ev CallEvent) Decision {
	if e.isFromClient(ev) {
		return e.routeOutbound(ev)
	}

	if ev.To != e.cfg.PhoneNumber {
		// Misrouted traffic; speak a terminal apology instead of crashing.
		return Decision{
			Action: ActionSay,
			Say:    "This number is not configured to receive calls. Goodbye.",
			Reason: "destination_mismatch",
		}
	}

	if e.cfg.RedirectNumber != "" {
		return Decision{
			Action:      ActionDialNumber,
			Target:      e.cfg.RedirectNumber,
			Timeout:     RedirectTimeout,
			CallbackURL: PathCallTimeout,
			Reason:      "redirect_number",
		}
	}

	return e.EnterAttempt(1)
}

// routeOutbound bridges a call placed by the software client to the dialed
// number, presenting the provisioned number as caller ID. No retry semantics.
func (e *Engine) routeOutbound(ev CallEvent) Decision {
	return Decision{
		Action:      ActionDialNumber,
		Target:      ev.To,
		CallerID:    e.cfg.PhoneNumber,
		CallbackURL: PathDialStatus,
		Reason:      "outbound_bridge",
	}
}

// EnterAttempt is the entry action for Attempting(n): filler speech, a short
// pause, then a bounded ring of the software client with the dial result
// reported to PathDialResult carrying the attempt counter.
func (e *Engine) EnterAttempt(n int) Decision {
	return Decision{
		Action:       ActionDialClient,
		Say:          connectingFiller,
		PauseSeconds: 1,
		Target:       e.cfg.ClientIdentity,
		Timeout:      AttemptTimeout,
		CallbackURL:  attemptURL(PathDialResult, n),
		Reason:       fmt.Sprintf("attempt_%d", n),
	}
}

// Decide renders the hop that follows a state transition. Attempting states
// redirect back to the attempt entry point so the entry action stays in one
// place; terminal ring states either end silently or fall over to voicemail.
func (e *Engine) Decide(s State) Decision {
	switch st := s.(type) {
	case Attempting:
		return Decision{
			Action:      ActionRedirect,
			RedirectURL: attemptURL(PathDialClient, st.N),
			Reason:      fmt.Sprintf("retry_%d", st.N),
		}
	case Exhausted:
		return Decision{
			Action:      ActionRedirect,
			RedirectURL: PathCallTimeout,
			Reason:      "exhausted",
		}
	default:
		// Answered: the call is bridged, nothing more to instruct.
		return Decision{Action: ActionNone, Reason: "answered"}
	}
}

// Voicemail is the Exhausted / call-timeout entry point. The outcome may be
// empty when reached via the max-attempts redirect. A completed outcome means
// the call was handled upstream and this hop is a defensive no-op.
func (e *Engine) Voicemail(outcome DialOutcome) Decision {
	if outcome == OutcomeCompleted {
		return Decision{Action: ActionNone, Reason: "already_answered"}
	}
	return Decision{
		Action:      ActionRecord,
		Say:         e.cfg.VoicemailPrompt,
		MaxLength:   RecordMaxLength,
		CallbackURL: PathRecording,
		Reason:      "voicemail",
	}
}

func (e *Engine) isFromClient(ev CallEvent) bool {
	if e.cfg.ClientIdentity != "" && ev.From == "client:"+e.cfg.ClientIdentity {
		return true
	}
	return strings.HasPrefix(ev.From, "client:")
}

// ParseAttempt validates the attempt counter decoded from a callback URL.
// Out-of-range values are a misbehaving caller, not a real hop.
func ParseAttempt(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("routing: attempt %q is not an integer", raw)
	}
	if n < 1 || n > MaxAttempts {
		return 0, fmt.Errorf("routing: attempt %d out of range 1..%d", n, MaxAttempts)
	}
	return n, nil
}

func attemptURL(path string, n int) string {
	return fmt.Sprintf("%s?%s=%d", path, AttemptParam, n)
}
