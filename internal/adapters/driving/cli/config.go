package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change configuration",
	Long: `Read and change docsight configuration. Keys are dotted paths such as
llm.provider or chat.top_k, stored in config.toml under the docsight home
directory ($DOCSIGHT_HOME or ~/.docsight).`,
}

var configGetCmd = &cobra.Command{
	Use:         "get [key]",
	Short:       "Print a configuration value",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set and save a configuration value",
	Long: `Sets a configuration value and saves the file. Values that parse as a
boolean, integer or number are stored as such.

Examples:
  docsight config set llm.provider openai
  docsight config set chat.top_k 8
  docsight config set extract.ner false`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List configured values",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNeeds: needsConfig},
	RunE:        runConfigList,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the AI providers respond",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

// keyLister is implemented by config stores that can enumerate their keys.
type keyLister interface {
	Keys() []string
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

var errConfigNotConfigured = errors.New("configuration not available")

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errConfigNotConfigured
	}
	val, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Println(formatConfigValue(args[0], val))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errConfigNotConfigured
	}
	key := strings.TrimSpace(args[0])
	if key == "" {
		return errors.New("key must not be empty")
	}
	if err := configStore.Set(key, parseConfigValue(args[1])); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if err := configStore.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	cmd.Printf("%s = %s\n", key, formatConfigValue(key, parseConfigValue(args[1])))
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errConfigNotConfigured
	}
	lister, ok := configStore.(keyLister)
	if !ok {
		return errors.New("configuration store cannot list its keys")
	}

	cmd.Printf("Configuration: %s\n\n", configStore.Path())
	keys := lister.Keys()
	if len(keys) == 0 {
		cmd.Println("No values set; defaults apply.")
		return nil
	}
	for _, key := range keys {
		val, _ := configStore.Get(key)
		cmd.Printf("  %s = %s\n", key, formatConfigValue(key, val))
	}
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	b, err := needBackend()
	if err != nil {
		return err
	}
	if b.CheckProviders == nil {
		return errors.New("provider check not available")
	}

	results := b.CheckProviders(cmd.Context())
	roles := make([]string, 0, len(results))
	for role := range results {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	failed := 0
	for _, role := range roles {
		if err := results[role]; err != nil {
			failed++
			cmd.Printf("  %-10s FAIL  %v\n", role, err)
			continue
		}
		cmd.Printf("  %-10s OK\n", role)
	}
	if failed > 0 {
		return fmt.Errorf("%d provider(s) failed", failed)
	}
	return nil
}

// parseConfigValue stores booleans and numbers with their own types.
func parseConfigValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func formatConfigValue(key string, val any) string {
	s := fmt.Sprint(val)
	if isSecretKey(key) {
		return maskSecret(s)
	}
	return s
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "_dsn") || strings.HasSuffix(key, "password")
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
