// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/session"
)

// staticCreds is a CredentialPrompter returning fixed credentials.
type staticCreds struct {
	identifier string
	secret     string
	err        error
}

func (c staticCreds) PromptCredentials(context.Context) (string, string, error) {
	return c.identifier, c.secret, c.err
}

type testEnv struct {
	orch    *Orchestrator
	sess    *session.Manager
	server  *httptest.Server
	chatHit *atomic.Int32
}

// newTestEnv wires a full stack against a fake API serving /token and a
// caller-supplied /chat handler.
func newTestEnv(t *testing.T, chatHandler http.HandlerFunc) *testEnv {
	t.Helper()
	dir := t.TempDir()

	hits := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") == "" || r.PostForm.Get("password") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok123","token_type":"bearer"}`)
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		chatHandler(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store, err := config.OpenPath(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	vault, err := session.OpenVault(dir)
	require.NoError(t, err)

	client := api.NewClient(store).WithBaseURL(server.URL)
	sess := session.NewManager(store, client, vault)
	client = client.WithTokenSource(sess)

	return &testEnv{
		orch:    New(store, client, sess),
		sess:    sess,
		server:  server,
		chatHit: hits,
	}
}

// answerHandler replies with a fixed answer after asserting the request
// shape.
func answerHandler(t *testing.T, answer string, wantMessages int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req struct {
			Messages []model.WireMessage `json:"messages"`
			Provider string              `json:"provider"`
			Model    string              `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if wantMessages > 0 {
			assert.Len(t, req.Messages, wantMessages)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"answer":%q}`, answer)
	}
}

func login(t *testing.T, env *testEnv) {
	t.Helper()
	require.NoError(t, env.sess.Login(context.Background(), "a@b.com", "pw"))
}

func TestSend_BlankInputIsNoOp(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "hi", 0))
	login(t, env)

	for _, input := range []string{"", "   ", "\n\t "} {
		status, err := env.orch.Send(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, SendNoOp, status)
	}

	assert.Empty(t, env.orch.History())
	assert.Equal(t, int32(0), env.chatHit.Load())
}

func TestSend_Authenticated(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "4", 1))
	login(t, env)

	status, err := env.orch.Send(context.Background(), "what is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, SendCompleted, status)
	assert.Equal(t, StateSettled, env.orch.State())

	turns := env.orch.History()
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "what is 2+2?", turns[0].Content)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, "4", turns[1].Content)
}

func TestSend_UnauthenticatedParksAwaitingAuth(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "hello", 1))

	status, err := env.orch.Send(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, SendAwaitingAuth, status)
	assert.Equal(t, StateAwaitingAuth, env.orch.State())

	// The message is already in the transcript and nothing hit the wire.
	turns := env.orch.History()
	require.Len(t, turns, 1)
	assert.Equal(t, "hello there", turns[0].Content)
	assert.Equal(t, int32(0), env.chatHit.Load())

	// After an external login, Resume dispatches the pending conversation
	// without a second user turn.
	login(t, env)
	status, err = env.orch.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SendCompleted, status)

	turns = env.orch.History()
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[1].Content)
}

func TestSend_PrompterLogsInInline(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "welcome", 1))
	env.orch.WithPrompter(staticCreds{identifier: "a@b.com", secret: "pw"})

	status, err := env.orch.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, SendCompleted, status)
	assert.True(t, env.sess.IsAuthenticated())

	turns := env.orch.History()
	require.Len(t, turns, 2)
	assert.Equal(t, "welcome", turns[1].Content)
}

func TestSend_PrompterLoginFailureBecomesDiagnostic(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "never", 0))
	env.orch.WithPrompter(staticCreds{identifier: "a@b.com", secret: ""})

	status, err := env.orch.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, SendCompleted, status)

	turns := env.orch.History()
	require.Len(t, turns, 2)
	assert.True(t, turns[1].Diagnostic)
	assert.Contains(t, turns[1].Content, "Login failed")
	assert.Equal(t, int32(0), env.chatHit.Load())
}

func TestSend_AbortedPromptSettlesAsDiagnostic(t *testing.T) {
	// An aborted credential prompt never parks the send; it settles
	// with a diagnostic so the caller sees SendCompleted.
	env := newTestEnv(t, answerHandler(t, "never", 0))
	env.orch.WithPrompter(staticCreds{err: fmt.Errorf("prompt aborted")})

	status, err := env.orch.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, SendCompleted, status)
	assert.Equal(t, StateSettled, env.orch.State())

	turns := env.orch.History()
	require.Len(t, turns, 2)
	assert.True(t, turns[1].Diagnostic)
	assert.Contains(t, turns[1].Content, "Login failed")
	assert.Equal(t, int32(0), env.chatHit.Load())
}

func TestSend_AuthErrorClearsSessionAndKeepsMessage(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	login(t, env)

	status, err := env.orch.Send(context.Background(), "still there?")
	require.NoError(t, err)
	assert.Equal(t, SendCompleted, status)

	// The rejected token is discarded everywhere.
	assert.False(t, env.sess.IsAuthenticated())

	turns := env.orch.History()
	require.Len(t, turns, 2)
	assert.Equal(t, "still there?", turns[0].Content)
	assert.True(t, turns[1].Diagnostic)
	assert.Contains(t, turns[1].Content, "re-authenticate")
}

func TestSend_ApplicationErrorBecomesDiagnostic(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"detail":"messages must not be empty"}`)
	})
	login(t, env)

	_, err := env.orch.Send(context.Background(), "hi")
	require.NoError(t, err)

	// The session survives a non-401 failure.
	assert.True(t, env.sess.IsAuthenticated())

	turns := env.orch.History()
	require.Len(t, turns, 2)
	assert.True(t, turns[1].Diagnostic)
	assert.Contains(t, turns[1].Content, "422")
}

func TestSend_TransportErrorBecomesDiagnostic(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "x", 0))
	login(t, env)
	env.server.Close()

	_, err := env.orch.Send(context.Background(), "anyone home?")
	require.NoError(t, err)

	turns := env.orch.History()
	require.Len(t, turns, 2)
	assert.True(t, turns[1].Diagnostic)
	assert.Contains(t, turns[1].Content, "API base URL")
	// Session state is untouched by transport failures.
	assert.True(t, env.sess.IsAuthenticated())
}

func TestSend_RejectsConcurrentSend(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"answer":"slow"}`)
	})
	login(t, env)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := env.orch.Send(context.Background(), "first")
		assert.NoError(t, err)
	}()

	<-entered
	_, err := env.orch.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	<-done

	// Only the first message made it into the transcript.
	turns := env.orch.History()
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Content)
}

func TestSend_DiagnosticsExcludedFromNextRequest(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req struct {
			Messages []model.WireMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Two user turns, no diagnostic from the failed attempt.
		require.Len(t, req.Messages, 2)
		for _, m := range req.Messages {
			assert.Equal(t, "user", m.Role)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"answer":"ok"}`)
	})
	login(t, env)

	_, err := env.orch.Send(context.Background(), "first try")
	require.NoError(t, err)
	fail.Store(false)
	_, err = env.orch.Send(context.Background(), "second try")
	require.NoError(t, err)

	turns := env.orch.History()
	require.Len(t, turns, 4)
	assert.Equal(t, "ok", turns[3].Content)
}

func TestSend_BareStringAndPlainTextAnswers(t *testing.T) {
	t.Run("bare JSON string", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `"just a string"`)
		})
		login(t, env)
		_, err := env.orch.Send(context.Background(), "hi")
		require.NoError(t, err)
		turns := env.orch.History()
		require.Len(t, turns, 2)
		assert.Equal(t, "just a string", turns[1].Content)
	})

	t.Run("plain text body", func(t *testing.T) {
		env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "plain answer")
		})
		login(t, env)
		_, err := env.orch.Send(context.Background(), "hi")
		require.NoError(t, err)
		turns := env.orch.History()
		require.Len(t, turns, 2)
		assert.Equal(t, "plain answer", turns[1].Content)
	})
}

func TestSend_ProviderAndModelOverrides(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Provider string `json:"provider"`
			Model    string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "openai", req.Provider)
		assert.Equal(t, "gpt-4o-mini", req.Model)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"answer":"ok"}`)
	})
	login(t, env)
	env.orch.WithProvider("openai").WithModel("gpt-4o-mini")

	_, err := env.orch.Send(context.Background(), "hi")
	require.NoError(t, err)
}

func TestSnapshot_DetachedFromInFlightSend(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"answer":"late"}`)
	})
	login(t, env)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := env.orch.Send(context.Background(), "slow question")
		assert.NoError(t, err)
	}()

	// Snapshot mid-send, while the server still holds the response. A
	// save triggered during a send reads exactly this copy.
	<-entered
	snap := env.orch.Snapshot()
	require.Len(t, snap.Turns, 1)
	assert.Equal(t, "slow question", snap.Turns[0].Content)

	close(release)
	<-done

	// The assistant turn settled into the live transcript only.
	assert.Len(t, snap.Turns, 1)
	assert.Len(t, env.orch.History(), 2)
	assert.Equal(t, 2, env.orch.Len())
}

func TestSnapshot_MutationDoesNotLeakBack(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "ok", 1))
	login(t, env)

	_, err := env.orch.Send(context.Background(), "hello")
	require.NoError(t, err)

	snap := env.orch.Snapshot()
	snap.AppendUser("scribble")
	assert.Len(t, env.orch.History(), 2)
}

func TestReset_ClearsTranscript(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "hi", 0))
	login(t, env)

	_, err := env.orch.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, env.orch.History(), 2)

	env.orch.Reset()
	assert.Empty(t, env.orch.History())
	assert.Equal(t, StateIdle, env.orch.State())
	// The session is untouched by a transcript reset.
	assert.True(t, env.sess.IsAuthenticated())
}

func TestResume_EmptyConversationIsNoOp(t *testing.T) {
	env := newTestEnv(t, answerHandler(t, "hi", 0))
	login(t, env)

	status, err := env.orch.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SendNoOp, status)
	assert.Equal(t, int32(0), env.chatHit.Load())
}
