// Package wiring is the composition root: it loads the schema catalog,
// builds the handler registry, opens the persistence backend, and
// assembles the Router in one place, the way a cmd package builds its
// channel manager.
package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/pocketbrain/wacore/internal/builtin"
	"github.com/pocketbrain/wacore/internal/builtin/services/expense"
	"github.com/pocketbrain/wacore/internal/cmdparse"
	"github.com/pocketbrain/wacore/internal/config"
	"github.com/pocketbrain/wacore/internal/outbound"
	"github.com/pocketbrain/wacore/internal/router"
	"github.com/pocketbrain/wacore/internal/schema"
	"github.com/pocketbrain/wacore/internal/session"
	"github.com/pocketbrain/wacore/internal/state"
	"github.com/pocketbrain/wacore/internal/store"
)

// SchemaDir is the default location of the schema catalog relative to the
// working directory the process is started from.
const SchemaDir = "schema"

// App bundles every long-lived component the cmd package needs.
type App struct {
	Catalog  *schema.Catalog
	Registry *schema.Registry
	DB       *store.DB
	StateMgr *state.Manager
	Router   *router.Router
}

// Build loads the schema catalog, registers every handler, opens the
// persistence backend, and wires the Router. Callers own app.DB.Close().
func Build(ctx context.Context, cfg *config.Config, sender outbound.Sender, logger *slog.Logger) (*App, error) {
	catalog, err := schema.LoadDir(SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("wiring: load schema: %w", err)
	}

	registry := schema.NewRegistry()
	builtin.Register(registry)
	expense.Register(registry)

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("wiring: open store: %w", err)
	}

	stateMgr, err := state.NewManager(ctx, db, cfg.InitialRootUserID, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("wiring: init state manager: %w", err)
	}

	sessionMgr := session.New(cfg.SessionTimeout)

	parserCfg := cmdparse.Config{
		RootPrefix:    cfg.RootPrefix,
		AdminPrefix:   cfg.AdminPrefix,
		CommandPrefix: cfg.CommandPrefix,
		InvokePrefix:  regexp.MustCompile(cfg.InvokePrefixPattern),
	}
	parser := cmdparse.New(parserCfg, catalog)

	hooks := map[string]session.ContextHook{}

	rtr := router.New(catalog, registry, stateMgr, sessionMgr, parser, sender, db, hooks, logger)

	return &App{
		Catalog:  catalog,
		Registry: registry,
		DB:       db,
		StateMgr: stateMgr,
		Router:   rtr,
	}, nil
}

// Close releases the backend resources Build opened.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
