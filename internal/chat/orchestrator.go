// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/util"
)

// ChatPath is the chat completion endpoint path.
const ChatPath = "/chat"

// ErrBusy rejects a second send while one is outstanding. At most one send
// is in flight per conversation.
var ErrBusy = errors.New("a send is already in progress")

// =============================================================================
// STATES
// =============================================================================

// State is the phase of the current (or last) send operation.
type State int

const (
	StateIdle State = iota
	StatePreparingAuth
	StateAwaitingAuth
	StateSending
	StateSettled
)

// String returns the state name for logging and status display.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparingAuth:
		return "preparing-auth"
	case StateAwaitingAuth:
		return "awaiting-auth"
	case StateSending:
		return "sending"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// SendStatus reports how a Send call concluded.
type SendStatus int

const (
	// SendCompleted: the send settled; the transcript holds either the
	// assistant's answer or a diagnostic turn.
	SendCompleted SendStatus = iota

	// SendNoOp: blank input; nothing was appended and no network call made.
	SendNoOp

	// SendAwaitingAuth: the user turn was appended but the session is
	// unauthenticated; the caller must capture credentials, log in, and
	// call Resume. The message is not lost and needs no retyping.
	SendAwaitingAuth
)

// CredentialPrompter captures credentials synchronously when no richer
// login surface is available (the REPL's inline prompt).
type CredentialPrompter interface {
	PromptCredentials(ctx context.Context) (identifier, secret string, err error)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator owns one conversation and drives send operations against
// the chat endpoint.
type Orchestrator struct {
	client  *api.Client
	session *session.Manager
	cfg     *config.Store

	prompter CredentialPrompter

	// Explicit per-instance overrides; empty falls back to the store.
	provider string
	model    string

	mu    sync.Mutex
	conv  *model.Conversation
	state State

	// inFlight enforces the single outstanding send invariant.
	inFlight atomic.Bool
}

// New creates an orchestrator with a fresh conversation.
func New(cfg *config.Store, client *api.Client, sess *session.Manager) *Orchestrator {
	return &Orchestrator{
		client:  client,
		session: sess,
		cfg:     cfg,
		conv:    model.NewConversation(),
		state:   StateIdle,
	}
}

// WithPrompter sets the synchronous credential-capture fallback. Without
// one, an unauthenticated send parks in AwaitingAuth instead of prompting.
func (o *Orchestrator) WithPrompter(p CredentialPrompter) *Orchestrator {
	o.prompter = p
	return o
}

// WithProvider sets an explicit provider override for every send.
func (o *Orchestrator) WithProvider(provider string) *Orchestrator {
	o.provider = provider
	return o
}

// WithModel sets an explicit model override for every send.
func (o *Orchestrator) WithModel(m string) *Orchestrator {
	o.model = m
	return o
}

// State returns the current send state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// History returns a snapshot of the transcript.
func (o *Orchestrator) History() []model.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	turns := make([]model.Turn, len(o.conv.Turns))
	copy(turns, o.conv.Turns)
	return turns
}

// Conversation returns the owned conversation. The orchestrator is the
// single writer; callers treat it as read-only and must not hold it
// across an in-flight send. Concurrent readers use Snapshot.
func (o *Orchestrator) Conversation() *model.Conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv
}

// Snapshot returns a detached copy of the conversation. Safe to read
// while a send is in flight; later turns land in the live transcript
// only.
func (o *Orchestrator) Snapshot() *model.Conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := *o.conv
	snap.Turns = make([]model.Turn, len(o.conv.Turns))
	copy(snap.Turns, o.conv.Turns)
	return &snap
}

// Len returns the number of turns in the transcript.
func (o *Orchestrator) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Len()
}

// Session returns the session manager (for UI login/logout surfaces).
func (o *Orchestrator) Session() *session.Manager {
	return o.session
}

// Reset discards all turns atomically, independent of session state.
// An in-flight send is not cancelled; its result lands in the new
// transcript as usual.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conv.Clear()
	o.state = StateIdle
}

// setState records a state transition.
func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// appendDiagnostic renders an error into the transcript.
func (o *Orchestrator) appendDiagnostic(text string) {
	o.mu.Lock()
	o.conv.AppendDiagnostic(text)
	o.mu.Unlock()
}

// =============================================================================
// SEND
// =============================================================================

// Send performs one send operation.
//
// Blank input is a silent no-op. The user turn is appended immediately on
// acceptance, before the auth check, so the text is never lost even when a
// login is required first. All gateway outcomes are rendered into the
// transcript; the only returned error is ErrBusy, which involves no
// network call and appends nothing.
func (o *Orchestrator) Send(ctx context.Context, text string) (SendStatus, error) {
	text = util.NormalizeInput(text)
	if text == "" {
		return SendNoOp, nil
	}

	if !o.inFlight.CompareAndSwap(false, true) {
		return SendNoOp, ErrBusy
	}
	defer o.inFlight.Store(false)

	o.mu.Lock()
	o.conv.AppendUser(text)
	o.state = StatePreparingAuth
	o.mu.Unlock()

	if !o.session.IsAuthenticated() {
		if o.prompter == nil {
			o.setState(StateAwaitingAuth)
			return SendAwaitingAuth, nil
		}
		identifier, secret, err := o.prompter.PromptCredentials(ctx)
		if err == nil {
			err = o.session.Login(ctx, identifier, secret)
		}
		if err != nil {
			o.appendDiagnostic("Login failed: " + err.Error())
			o.setState(StateSettled)
			return SendCompleted, nil
		}
	}

	o.dispatch(ctx)
	return SendCompleted, nil
}

// Resume dispatches the pending conversation after an external login
// completed a send that parked in AwaitingAuth.
func (o *Orchestrator) Resume(ctx context.Context) (SendStatus, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return SendNoOp, ErrBusy
	}
	defer o.inFlight.Store(false)

	o.mu.Lock()
	empty := o.conv.IsEmpty()
	o.mu.Unlock()
	if empty {
		return SendNoOp, nil
	}

	if !o.session.IsAuthenticated() {
		o.setState(StateAwaitingAuth)
		return SendAwaitingAuth, nil
	}

	o.dispatch(ctx)
	return SendCompleted, nil
}

// chatRequest is the chat endpoint payload: the entire conversation so
// far, replayed verbatim, plus optional provider/model preferences.
type chatRequest struct {
	Messages []model.WireMessage `json:"messages"`
	Provider string              `json:"provider,omitempty"`
	Model    string              `json:"model,omitempty"`
}

// dispatch submits the conversation and settles the outcome into the
// transcript.
func (o *Orchestrator) dispatch(ctx context.Context) {
	o.mu.Lock()
	o.state = StateSending
	payload := chatRequest{
		Messages: o.conv.WireMessages(),
		Provider: o.resolveProvider(),
		Model:    o.resolveModel(),
	}
	o.mu.Unlock()

	res, err := o.client.Send(ctx, api.Request{
		Path:   ChatPath,
		Method: http.MethodPost,
		Body:   payload,
	})

	switch {
	case err == nil:
		o.mu.Lock()
		o.conv.AppendAssistant(extractAnswer(res))
		o.mu.Unlock()

	case isAuthError(err):
		// The session manager owns the side effect; the gateway stayed pure.
		o.session.HandleAuthError()
		o.appendDiagnostic("Session expired or invalid credentials. Use /login to re-authenticate; your last message is kept and will be resent.")

	default:
		// Transport or application error: terminal for this send, session
		// untouched, never retried automatically.
		o.appendDiagnostic(err.Error())
	}

	o.setState(StateSettled)
}

func (o *Orchestrator) resolveProvider() string {
	if o.provider != "" {
		return o.provider
	}
	return o.cfg.Provider()
}

func (o *Orchestrator) resolveModel() string {
	if o.model != "" {
		return o.model
	}
	return o.cfg.Model()
}

// isAuthError reports whether a gateway outcome is the 401 class.
func isAuthError(err error) bool {
	var authErr *api.AuthError
	return errors.As(err, &authErr)
}

// extractAnswer pulls the assistant text out of a success result: the
// JSON "answer" field, a bare JSON string body, or the raw text body.
func extractAnswer(res *api.Result) string {
	if !res.IsJSON() {
		return res.Text
	}
	var withAnswer struct {
		Answer string `json:"answer"`
	}
	if err := res.Decode(&withAnswer); err == nil && withAnswer.Answer != "" {
		return withAnswer.Answer
	}
	var bare string
	if err := res.Decode(&bare); err == nil {
		return bare
	}
	return ""
}
