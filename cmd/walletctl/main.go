package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jmerrifield20/walletd/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

const defaultServerURL = "http://localhost:4000"

var (
	serverURL string
	token     string
	cfgFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "walletctl",
	Short: "walletd command-line client",
	Long: `walletctl talks to a walletd server.

Log in once and the token is saved to ~/.walletctl/config.yaml:

  walletctl login alice --save
  walletctl balances add USD 100
  walletctl balances list`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(configDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("WALLETCTL")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = defaultServerURL
		}
		if token == "" {
			token = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.walletctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "walletd server URL (default "+defaultServerURL+")")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "session token (default: saved token)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() (*client.Client, error) {
	var opts []client.Option
	if token != "" {
		opts = append(opts, client.WithToken(token))
	}
	return client.New(serverURL, opts...)
}

// ── register / login ─────────────────────────────────────────────────────────

var (
	authPassword string
	authSave     bool
)

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := passwordFromFlagOrPrompt(cmd)
		if err != nil {
			return err
		}
		c, err := client.New(serverURL)
		if err != nil {
			return err
		}
		tok, err := c.Register(context.Background(), args[0], args[1], pw)
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		fmt.Printf("✓ Registered %s\n", args[0])
		return finishAuth(tok)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in and obtain a session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := passwordFromFlagOrPrompt(cmd)
		if err != nil {
			return err
		}
		c, err := client.New(serverURL)
		if err != nil {
			return err
		}
		tok, err := c.Login(context.Background(), args[0], pw)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Printf("✓ Logged in as %s\n", args[0])
		return finishAuth(tok)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{registerCmd, loginCmd} {
		cmd.Flags().StringVar(&authPassword, "password", "", "password (prompted when omitted)")
		cmd.Flags().BoolVar(&authSave, "save", false, "save the server URL and token to the config file")
	}
}

func passwordFromFlagOrPrompt(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("password") {
		return authPassword, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func finishAuth(tok string) error {
	if !authSave {
		fmt.Println(tok)
		return nil
	}
	path := cfgFile
	if path == "" {
		path = filepath.Join(configDir(), "config.yaml")
	}
	if err := saveSession(path, serverURL, tok); err != nil {
		return err
	}
	fmt.Printf("  token saved to %s\n", path)
	return nil
}

// saveSession writes the server URL and token to path, creating its directory.
func saveSession(path, server, tok string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	_ = v.ReadInConfig()
	v.Set("server_url", server)
	v.Set("token", tok)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Chmod(path, 0o600)
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".walletctl")
}

// ── balances ─────────────────────────────────────────────────────────────────

var balancesFormat string

var balancesCmd = &cobra.Command{
	Use:     "balances",
	Aliases: []string{"currencies"},
	Short:   "List and edit your balances",
}

var balancesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List balances in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		entries, err := c.ListEntries(context.Background())
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		if balancesFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		return printEntries(entries)
	},
}

var balancesAddCmd = &cobra.Command{
	Use:   "add <currency> <amount>",
	Short: "Append a balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.AddEntry(context.Background(), args[0], amount); err != nil {
			return fmt.Errorf("add: %w", err)
		}
		fmt.Printf("✓ Added %s %s\n", args[0], args[1])
		return nil
	},
}

var balancesSetCmd = &cobra.Command{
	Use:   "set <currency> <amount>",
	Short: "Overwrite the first balance for a currency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.SetEntry(context.Background(), args[0], amount); err != nil {
			return fmt.Errorf("set: %w", err)
		}
		fmt.Printf("✓ Set %s to %s\n", args[0], args[1])
		return nil
	},
}

var balancesRemoveCmd = &cobra.Command{
	Use:   "remove <currency>",
	Short: "Remove every balance for a currency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.RemoveEntries(context.Background(), args[0]); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
		fmt.Printf("✓ Removed %s\n", args[0])
		return nil
	},
}

func init() {
	balancesListCmd.Flags().StringVar(&balancesFormat, "format", "text", "Output format: text or json")

	balancesCmd.AddCommand(balancesListCmd)
	balancesCmd.AddCommand(balancesAddCmd)
	balancesCmd.AddCommand(balancesSetCmd)
	balancesCmd.AddCommand(balancesRemoveCmd)
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

func printEntries(entries []client.Entry) error {
	if len(entries) == 0 {
		fmt.Println("No balances.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURRENCY\tAMOUNT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Currency, strconv.FormatFloat(e.Amount, 'f', -1, 64))
	}
	return w.Flush()
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the walletctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("walletctl %s\n", version)
	},
}
