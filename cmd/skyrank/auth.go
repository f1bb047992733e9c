package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"skyrank/pkg/auth"
	"skyrank/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Bluesky credentials",
	Long: `Manage stored Bluesky credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Use an app password generated under Settings > App Passwords, never
your main account password.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [handle]",
	Short: "Store Bluesky credentials securely",
	Long: `Store a Bluesky handle and app password in the system keychain or an
encrypted file.

To create an app password:
1. Open the Bluesky app or website
2. Go to Settings > Privacy and Security > App Passwords
3. Add an app password and copy the generated value`,
	Example: `  # Interactive login
  skyrank auth login

  # Login with handle
  skyrank auth login alice.bsky.social`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [handle]",
	Short: "Remove stored credentials",
	Long: `Remove stored Bluesky credentials.

If no handle is provided, you will be shown a list of stored accounts
to choose from.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Bluesky accounts with sanitized credential information.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var handle string
	if len(args) > 0 {
		handle = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	if handle == "" {
		fmt.Print("Bluesky handle (e.g. alice.bsky.social): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read handle", err.Error())
			os.Exit(1)
		}
		handle = strings.TrimSpace(input)
	}

	if handle == "" {
		ui.PrintError("Handle is required")
		os.Exit(1)
	}

	if existing, err := manager.Retrieve(handle); err == nil && existing != nil {
		fmt.Printf("Account '%s' already exists. Update credentials? (y/N): ", handle)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Cancelled.")
			return
		}
	}

	fmt.Print("App password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		ui.PrintError("Failed to read app password", err.Error())
		os.Exit(1)
	}
	appPassword := strings.TrimSpace(string(passwordBytes))

	if appPassword == "" {
		ui.PrintError("App password is required")
		os.Exit(1)
	}

	fmt.Print("PDS host (press Enter for https://bsky.social): ")
	pdsInput, _ := reader.ReadString('\n')
	pdsHost := strings.TrimSpace(pdsInput)
	if pdsHost == "" {
		pdsHost = "https://bsky.social"
	}

	account := &auth.Account{
		Handle:       handle,
		AppPassword:  appPassword,
		PDSHost:      pdsHost,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Credentials stored securely")
	fmt.Printf("   Handle: %s\n", handle)
	sanitized := auth.SanitizeAccount(account)
	fmt.Printf("   App Password: %s\n", sanitized.AppPassword)
	fmt.Println("\nTry it out:")
	fmt.Println("   $ skyrank rank")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var handle string
	if len(args) > 0 {
		handle = strings.TrimSpace(args[0])
	}

	if handle == "" {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintWarning("No stored accounts found")
			return
		}

		fmt.Println("Stored accounts:")
		for i, account := range accounts {
			fmt.Printf("  %d. %s\n", i+1, account.Handle)
		}
		fmt.Print("\nAccount number to remove (0 to cancel): ")

		reader := bufio.NewReader(os.Stdin)
		input, _ := reader.ReadString('\n')
		var choice int
		if _, err := fmt.Sscanf(strings.TrimSpace(input), "%d", &choice); err != nil || choice < 1 || choice > len(accounts) {
			fmt.Println("Cancelled.")
			return
		}
		handle = accounts[choice-1].Handle
	}

	if err := manager.Delete(handle); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Removed credentials for %s", handle))
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		fmt.Println("\nStore credentials with:")
		fmt.Println("   $ skyrank auth login")
		return
	}

	fmt.Printf("Stored accounts (%d):\n\n", len(accounts))
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Handle: %s\n", i+1, sanitized.Handle)
		fmt.Printf("   App Password: %s\n", sanitized.AppPassword)
		if sanitized.PDSHost != "" {
			fmt.Printf("   PDS Host: %s\n", sanitized.PDSHost)
		}
		fmt.Printf("   Last Modified: %s\n\n", account.LastModified.Format("2006-01-02 15:04"))
	}
}
