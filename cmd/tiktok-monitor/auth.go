package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ruenh/tiktok-monitor/pkg/auth"
	"github.com/ruenh/tiktok-monitor/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage TikTok credentials",
	Long: `Manage stored TikTok credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your session cookie or config files!`,
}

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store TikTok credentials securely",
	Long: `Store TikTok credentials securely in the system keychain or encrypted file.

You will be prompted for:
  - Account name (if not provided)
  - Session ID (from the sessionid cookie)
  - Webhook secret (optional, press Enter to skip)`,
	Example: `  # Interactive login
  tiktok-monitor auth login

  # Login with an account name
  tiktok-monitor auth login main`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogin,
}

var authLoginQuick bool

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Long: `Remove stored TikTok credentials.

If no account name is provided, all stored accounts are listed so you can
pick one.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with sanitized credential information.`,
	Run:   runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authLoginCmd.Flags().BoolVar(&authLoginQuick, "quick", false, "show the condensed cookie guide")
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	if authLoginQuick {
		auth.ShowQuickExtractGuide()
	} else {
		auth.ShowCookieExtractionGuide()
	}

	fmt.Print("Ready to enter your session cookie? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(ready)) == "n" {
		fmt.Println("\nRun 'tiktok-monitor auth login' when you're ready.")
		return
	}

	fmt.Println()

	if name == "" {
		fmt.Print("📱 Account name (e.g. main): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read account name: %v", err)
			os.Exit(1)
		}
		name = strings.TrimSpace(input)
	}

	if name == "" {
		ui.PrintError("Account name is required")
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\n⚠️  Account '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("\n🔐 Enter your values (they will be hidden as you type):")
	fmt.Println()

	sessionID := promptSecret("Session ID: ")
	if sessionID == "" {
		ui.PrintError("Session ID is required")
		os.Exit(1)
	}

	webhookSecret := promptSecret("Webhook secret (optional): ")

	account := &auth.Account{
		Name:          name,
		SessionID:     sessionID,
		WebhookSecret: webhookSecret,
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Credentials stored for account '%s'", name)
}

func runAuthLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	if name == "" {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintInfo("No stored accounts.")
			return
		}

		fmt.Println("Stored accounts:")
		for i, account := range accounts {
			fmt.Printf("  %d. %s\n", i+1, account.Name)
		}

		fmt.Print("\nAccount name to remove: ")
		reader := bufio.NewReader(os.Stdin)
		input, _ := reader.ReadString('\n')
		name = strings.TrimSpace(input)
	}

	if name == "" {
		ui.PrintError("Account name is required")
		os.Exit(1)
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove credentials: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Removed credentials for account '%s'", name)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts: %v", err)
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts. Run 'tiktok-monitor auth login' to add one.")
		return
	}

	ui.PrintHighlight("Stored accounts:")
	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("  %s\n", sanitized.Name)
		fmt.Printf("    session:  %s\n", sanitized.SessionID)
		if sanitized.WebhookSecret != "" {
			fmt.Printf("    secret:   %s\n", sanitized.WebhookSecret)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("    modified: %s\n", sanitized.LastModified.Local().Format("2006-01-02 15:04:05"))
		}
	}
}

// promptSecret reads a value without echoing it to the terminal.
func promptSecret(prompt string) string {
	fmt.Print(prompt)
	value, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(value))
}
