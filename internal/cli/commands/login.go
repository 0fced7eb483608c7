package commands

import (
	"fmt"
	"os"
	"sort"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dairychain-dev/dairychain/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var username, password, serverAlias string
	var dev bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a dairychain server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, username, password, serverAlias, dev)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (or set DAIRYCHAIN_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set DAIRYCHAIN_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from dairychain.json")
	cmd.Flags().BoolVar(&dev, "dev", false, "Log in with a seeded development account")

	return cmd
}

func runLogin(cmd *cobra.Command, username, password, serverAlias string, dev bool) error {
	ctx := cmd.Context()

	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient, manager := newSession(server)

	fmt.Printf("Logging in to %s (%s)...\n", server.Alias, server.URL)

	if dev {
		if username == "" || password == "" {
			username, password, err = pickDevCredential(cmd, apiClient)
			if err != nil {
				return err
			}
		}
		if _, err := manager.DevLogin(ctx, username, password); err != nil {
			return err
		}
		return printPostLogin(manager)
	}

	// Check for environment variables (useful for CI/CD)
	if username == "" {
		username = os.Getenv("DAIRYCHAIN_USERNAME")
	}
	if password == "" {
		password = os.Getenv("DAIRYCHAIN_PASSWORD")
	}

	if username == "" {
		return fmt.Errorf("username is required (use --username flag or DAIRYCHAIN_USERNAME env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or DAIRYCHAIN_PASSWORD env var)")
		}
	}

	if _, err := manager.Login(ctx, username, password); err != nil {
		return err
	}
	return printPostLogin(manager)
}

// pickDevCredential lists the server's seeded development accounts and lets
// the user pick one interactively
func pickDevCredential(cmd *cobra.Command, api devCredentialLister) (string, string, error) {
	creds, err := api.DevCredentials(cmd.Context())
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch development credentials: %w", err)
	}
	if len(creds) == 0 {
		return "", "", fmt.Errorf("server has no development accounts (is DEV_LOGIN_ENABLED set?)")
	}

	type option struct {
		Label    string
		Username string
		Password string
	}
	options := make([]option, 0, len(creds))
	for username, cred := range creds {
		options = append(options, option{
			Label:    fmt.Sprintf("%s (%s)", username, cred.Role),
			Username: username,
			Password: cred.Password,
		})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Username < options[j].Username })

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a development account",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("account selection cancelled: %w", err)
	}
	return options[index].Username, options[index].Password, nil
}

// printPostLogin reports where the session landed and replays any command
// the user was originally trying to run
func printPostLogin(manager sessionReader) error {
	current := manager.Current()
	if current.User == nil {
		return nil
	}

	fmt.Printf("  User: %s (%s)\n", current.User.FullName, current.User.Username)
	fmt.Printf("  Role: %s\n", current.User.Role)

	returnTo, err := userconfig.TakeReturnTo()
	if err == nil && returnTo != "" {
		fmt.Printf("\nYou were heading to 'dairychain %s'. Run it again now that you're logged in.\n", returnTo)
	}
	return nil
}
