// Package assist implements the generative assist actions: drafting a summary, polishing an
// experience description and suggesting skills.
package assist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/document"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/types"
)

const promptFile = "assist.json"

// DefaultTimeout bounds a single assist call.
const DefaultTimeout = 30 * time.Second

// Action identifies one assist action.
type Action string

// Assist actions.
const (
	ActionSummary Action = "summary"
	ActionPolish  Action = "polish"
	ActionSkills  Action = "skills"
)

// State is the lifecycle state of one slot.
type State string

// Slot states. A slot moves idle -> requesting -> applied|failed -> idle.
const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateApplied    State = "applied"
	StateFailed     State = "failed"
)

// Views that need refreshing after an action is applied.
const (
	RefreshPreview          = "preview"
	RefreshPersonalInputs   = "personal-inputs"
	RefreshExperienceInputs = "experience-inputs"
	RefreshSkillsInput      = "skills-input"
)

// Label is the text of an action's button.
type Label struct {
	Idle string
	Busy string
}

var labels = map[Action]Label{
	ActionSummary: {Idle: "✨ AI Write", Busy: "Thinking..."},
	ActionPolish:  {Idle: "✨ Polish", Busy: "..."},
	ActionSkills:  {Idle: "✨ Suggest", Busy: "..."},
}

// LabelFor returns the button labels of an action.
func LabelFor(a Action) Label {
	return labels[a]
}

// Slot is the unit of supersession: one action, plus the entry for polish.
type Slot struct {
	Action  Action `json:"action"`
	EntryID string `json:"entry_id,omitempty"`
}

// StateChange is published whenever a slot changes state.
type StateChange struct {
	Slot  Slot   `json:"slot"`
	State State  `json:"state"`
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

// Outcome reports what an action did to the document.
type Outcome struct {
	Action  Action   `json:"action"`
	Applied bool     `json:"applied"`
	Refresh []string `json:"refresh,omitempty"`
}

// ClientFactory builds a text-generation client for one call.
type ClientFactory func(ctx context.Context, apiKey string) (llm.Client, error)

// NewClientFactory returns a factory that builds clients from config.
func NewClientFactory(config *llm.Config) ClientFactory {
	return func(ctx context.Context, apiKey string) (llm.Client, error) {
		return llm.NewClient(ctx, config, apiKey)
	}
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithTimeout sets the per-call timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// WithStateListener registers fn to receive slot state changes.
func WithStateListener(fn func(StateChange)) Option {
	return func(a *Assistant) { a.onState = fn }
}

// WithTier selects the model tier used for generation.
func WithTier(tier llm.ModelTier) Option {
	return func(a *Assistant) { a.tier = tier }
}

type slotState struct {
	generation uint64
	cancel     context.CancelFunc
}

// Assistant runs assist actions against one document.
type Assistant struct {
	doc       *document.Document
	newClient ClientFactory
	timeout   time.Duration
	tier      llm.ModelTier
	logger    *slog.Logger
	onState   func(StateChange)

	mu    sync.Mutex
	slots map[Slot]*slotState
}

// New creates an Assistant for doc.
func New(doc *document.Document, factory ClientFactory, opts ...Option) *Assistant {
	a := &Assistant{
		doc:       doc,
		newClient: factory,
		timeout:   DefaultTimeout,
		tier:      llm.TierStandard,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		slots:     make(map[Slot]*slotState),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type promptData struct {
	JobTitle    string
	Description string
}

// DraftSummary asks for a short professional summary for the current job title and
// overwrites the summary with it.
func (a *Assistant) DraftSummary(ctx context.Context, apiKey string) (Outcome, error) {
	snap := a.doc.Snapshot()
	if snap.Personal.JobTitle == "" {
		return Outcome{}, &ValidationError{Field: string(types.FieldJobTitle), Message: "Enter a Job Title first!"}
	}

	slot := Slot{Action: ActionSummary}
	outcome := Outcome{Action: ActionSummary, Refresh: []string{RefreshPersonalInputs, RefreshPreview}}
	return a.run(ctx, slot, apiKey, "draft_summary", promptData{JobTitle: snap.Personal.JobTitle}, outcome,
		func(text string) bool {
			return a.doc.SetPersonalField(types.FieldSummary, text) == nil
		})
}

// PolishExperience rewrites one entry's description. An unknown entry or an empty
// description is a no-op.
func (a *Assistant) PolishExperience(ctx context.Context, apiKey, entryID string) (Outcome, error) {
	entry, ok := a.doc.Experience(entryID)
	if !ok || entry.Description == "" {
		return Outcome{Action: ActionPolish}, nil
	}

	slot := Slot{Action: ActionPolish, EntryID: entryID}
	outcome := Outcome{Action: ActionPolish, Refresh: []string{RefreshExperienceInputs, RefreshPreview}}
	return a.run(ctx, slot, apiKey, "polish_experience", promptData{Description: entry.Description}, outcome,
		func(text string) bool {
			matched, err := a.doc.UpdateExperienceField(entryID, types.ExperienceDescription, text)
			return err == nil && matched
		})
}

// SuggestSkills asks for ten comma-separated skills for the current job title and
// overwrites the skills text with the answer as returned.
func (a *Assistant) SuggestSkills(ctx context.Context, apiKey string) (Outcome, error) {
	snap := a.doc.Snapshot()
	if snap.Personal.JobTitle == "" {
		return Outcome{}, &ValidationError{Field: string(types.FieldJobTitle), Message: "Enter a Job Title first!"}
	}

	slot := Slot{Action: ActionSkills}
	outcome := Outcome{Action: ActionSkills, Refresh: []string{RefreshSkillsInput, RefreshPreview}}
	return a.run(ctx, slot, apiKey, "suggest_skills", promptData{JobTitle: snap.Personal.JobTitle}, outcome,
		func(text string) bool {
			a.doc.SetSkills(text)
			return true
		})
}

// Busy reports whether slot has a request in flight.
func (a *Assistant) Busy(slot Slot) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.slots[slot]
	return ok
}

// Cancel aborts every in-flight request and returns their slots to idle.
// Their results are discarded.
func (a *Assistant) Cancel() {
	a.mu.Lock()
	cancelled := make([]Slot, 0, len(a.slots))
	for slot, st := range a.slots {
		st.cancel()
		delete(a.slots, slot)
		cancelled = append(cancelled, slot)
	}
	a.mu.Unlock()

	for _, slot := range cancelled {
		a.publish(slot, StateIdle, "")
	}
}

func (a *Assistant) run(
	ctx context.Context,
	slot Slot,
	apiKey, promptKey string,
	data promptData,
	outcome Outcome,
	apply func(text string) bool,
) (Outcome, error) {
	if apiKey == "" {
		return Outcome{}, &MissingCredentialError{Message: "Please enter your Google Gemini API Key first!"}
	}

	prompt, err := prompts.GetRendered(promptFile, promptKey, data)
	if err != nil {
		return Outcome{}, &GenerationUnavailableError{Message: "failed to build prompt", Cause: err}
	}

	callCtx, gen := a.begin(ctx, slot)
	log := a.logger.With("action", slot.Action, "entry", slot.EntryID, "generation", gen)
	log.Info("assist request started")

	text, callErr := a.generate(callCtx, apiKey, prompt)

	a.mu.Lock()
	st, current := a.slots[slot]
	if !current || st.generation != gen {
		a.mu.Unlock()
		log.Info("assist result discarded", "reason", "superseded")
		return Outcome{}, ErrSuperseded
	}
	st.cancel()
	delete(a.slots, slot)

	if callErr == nil {
		outcome.Applied = apply(text)
	}
	a.mu.Unlock()

	if callErr != nil {
		log.Warn("assist request failed", "error", callErr)
		a.publish(slot, StateFailed, callErr.Error())
		a.publish(slot, StateIdle, "")
		var missing *MissingCredentialError
		if errors.As(callErr, &missing) {
			return Outcome{}, callErr
		}
		return Outcome{}, &GenerationUnavailableError{Message: "AI Error. Check your API Key or Internet Connection.", Cause: callErr}
	}

	log.Info("assist request applied", "applied", outcome.Applied)
	a.publish(slot, StateApplied, "")
	a.publish(slot, StateIdle, "")
	return outcome, nil
}

// begin registers a new generation for slot, cancelling any request already in flight on it.
func (a *Assistant) begin(ctx context.Context, slot Slot) (context.Context, uint64) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)

	a.mu.Lock()
	var gen uint64 = 1
	if prev, ok := a.slots[slot]; ok {
		prev.cancel()
		gen = prev.generation + 1
	}
	a.slots[slot] = &slotState{generation: gen, cancel: cancel}
	a.mu.Unlock()

	a.publish(slot, StateRequesting, "")
	return callCtx, gen
}

func (a *Assistant) generate(ctx context.Context, apiKey, prompt string) (string, error) {
	client, err := a.newClient(ctx, apiKey)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return "", &MissingCredentialError{Message: err.Error()}
		}
		return "", err
	}
	defer func() { _ = client.Close() }()

	text, err := client.GenerateContent(ctx, prompt, a.tier)
	if err != nil {
		return "", err
	}

	text = llm.StripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return "", &llm.EmptyResponseError{Message: "generated text is blank"}
	}
	return text, nil
}

func (a *Assistant) publish(slot Slot, state State, errMsg string) {
	if a.onState == nil {
		return
	}
	label := labels[slot.Action].Idle
	if state == StateRequesting {
		label = labels[slot.Action].Busy
	}
	a.onState(StateChange{Slot: slot, State: state, Label: label, Error: errMsg})
}
