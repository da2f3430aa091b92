// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for CLI commands.
//
// Every command that talks to the backend needs the same stack: the
// config store, the token vault, the request gateway, and the session
// manager. BuildApp assembles it once.
package cli

import (
	"fmt"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/chat"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/session"
)

// App bundles the wired application stack for one command invocation.
type App struct {
	Store   *config.Store
	Client  *api.Client
	Session *session.Manager
}

// BuildApp opens the config store and wires the gateway and session
// manager against it. Flag overrides win over stored settings.
func BuildApp(args Args) (*App, error) {
	store, err := config.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	vault, err := session.OpenVault(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open token vault: %w", err)
	}

	client := api.NewClient(store)
	if args.APIBase != "" {
		client = client.WithBaseURL(args.APIBase)
	}

	sess := session.NewManager(store, client, vault)
	client.WithTokenSource(sess)

	// Pick up settings another terminal writes while this one runs.
	if err := store.Watch(nil); err != nil {
		return nil, fmt.Errorf("failed to watch settings: %w", err)
	}

	return &App{
		Store:   store,
		Client:  client,
		Session: sess,
	}, nil
}

// Close releases the app's background resources.
func (a *App) Close() error {
	return a.Store.CloseWatch()
}

// orchestrator builds a chat orchestrator over the app stack with the
// command's provider/model overrides applied.
func (a *App) orchestrator(args Args) *chat.Orchestrator {
	orch := chat.New(a.Store, a.Client, a.Session)
	if args.Provider != "" {
		orch.WithProvider(args.Provider)
	}
	if args.Model != "" {
		orch.WithModel(args.Model)
	}
	return orch
}
