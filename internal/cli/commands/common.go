package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/dairychain-dev/dairychain/internal/cli/client"
	"github.com/dairychain-dev/dairychain/internal/cli/config"
	"github.com/dairychain-dev/dairychain/internal/cli/guard"
	"github.com/dairychain-dev/dairychain/internal/cli/serverselect"
	"github.com/dairychain-dev/dairychain/internal/cli/session"
	"github.com/dairychain-dev/dairychain/internal/cli/tokenstore"
	"github.com/dairychain-dev/dairychain/internal/cli/userconfig"
)

// consoleNotifier prints session feedback to the terminal. It is the CLI
// rendering of the dashboard's toast notifications.
type consoleNotifier struct{}

func (consoleNotifier) Success(title, message string) {
	fmt.Printf("✓ %s %s\n", title, message)
}

func (consoleNotifier) Error(title, message string) {
	fmt.Printf("✗ %s: %s\n", title, message)
}

// getSelectedServer loads the project config and resolves which server to
// use. This is common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'dairychain init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	if server.URL == "" {
		return nil, fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	return server, nil
}

// newSession builds the API client and session manager for a server
func newSession(server *config.Server) (*client.Client, *session.Manager) {
	apiClient := client.New(server.URL, tokenstore.Default)
	manager := session.NewManager(apiClient, tokenstore.Default, apiClient.BaseURL(), consoleNotifier{})
	return apiClient, manager
}

// requireAccess hydrates the session and checks the command's access
// requirement. On a login decision the attempted command is remembered so
// login can point the user back to it afterwards.
func requireAccess(ctx context.Context, serverAlias, target string, req guard.Requirement) (*client.Client, *session.Manager, error) {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return nil, nil, err
	}

	apiClient, manager := newSession(server)
	manager.Hydrate(ctx)

	decision := guard.Evaluate(manager.Current(), target, req)
	switch decision.Kind {
	case guard.KindAllow:
		return apiClient, manager, nil
	case guard.KindLogin:
		if decision.ReturnTo != "" {
			_ = userconfig.SetReturnTo(decision.ReturnTo)
		}
		return nil, nil, fmt.Errorf("not logged in. Run 'dairychain login' first")
	case guard.KindDenied:
		return nil, nil, fmt.Errorf("access denied: %s", decision.Reason)
	default:
		// Hydrate always resolves before Evaluate runs, so a loading
		// decision here means a programming error
		return nil, nil, fmt.Errorf("session state unresolved")
	}
}

// commandPath joins a command path for the return-to bookmark
func commandPath(parts ...string) string {
	return strings.Join(parts, " ")
}
