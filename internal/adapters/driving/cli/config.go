package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage config.toml",
	Long: `View and change config.toml one key at a time.

Keys use dotted paths such as formatting.patients_per_file or
sheet_settings.order_for_tracing. Every change is validated before it is saved.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configured key",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one configuration value",
	Long: `Sets one configuration value. The value is read as a TOML value, so
numbers, booleans and arrays such as [2, 4, 3] keep their type; anything
else is stored as a string.

If the value is omitted it is prompted for without echo, which suits
radar.dsn when it carries a password.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(configPath)
	},
}

// stdin is read by config set when the value is prompted for.
var stdin io.Reader = os.Stdin

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if builder == nil {
		return errors.New("config store not configured")
	}
	store, err := builder.ConfigStore(configPath)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}

	keys := store.Keys()
	if len(keys) == 0 {
		cmd.Printf("%s sets no keys; defaults apply.\n", store.Path())
		return nil
	}
	for _, key := range keys {
		v, _ := store.Get(key)
		cmd.Printf("%s = %s\n", key, displayValue(key, v))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if builder == nil {
		return errors.New("config store not configured")
	}
	store, err := builder.ConfigStore(configPath)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}

	v, ok := store.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Println(displayValue(args[0], v))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if builder == nil {
		return errors.New("config store not configured")
	}
	store, err := builder.ConfigStore(configPath)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}

	key := args[0]
	var raw string
	if len(args) == 2 {
		raw = args[1]
	} else {
		cmd.Printf("%s: ", key)
		raw = readSecret()
		cmd.Println()
	}

	value := parseValue(raw)
	err = store.Set(key, value)
	if _, isString := value.(string); err != nil && !isString {
		// "20060102" reads as a number but date_format wants a string.
		err = store.Set(key, raw)
	}
	if err != nil {
		return err
	}
	cmd.Printf("Set %s.\n", key)
	return nil
}

// parseValue reads raw as a TOML value, falling back to a plain string.
func parseValue(raw string) any {
	var doc struct {
		V any `toml:"v"`
	}
	if err := toml.Unmarshal([]byte("v = "+raw), &doc); err != nil {
		return raw
	}
	switch doc.V.(type) {
	case int64, float64, bool, []any:
		return doc.V
	default:
		return raw
	}
}

// displayValue renders v for the terminal, masking secrets.
func displayValue(key string, v any) string {
	s := fmt.Sprint(v)
	if isSecretKey(key) {
		return maskSecret(s)
	}
	return s
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return strings.HasSuffix(key, "dsn") || strings.Contains(key, "password")
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

//nolint:errcheck // CLI helper, error ignored for UX
func readSecret() string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(secret)
		}
	}
	input, _ := bufio.NewReader(stdin).ReadString('\n')
	return strings.TrimSpace(input)
}
