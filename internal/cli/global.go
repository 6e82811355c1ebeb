package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/searchgate/searchgate/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	jsonFormat  = "json"
	yamlFormat  = "yaml"
	tableFormat = "table"
)

type GlobalOptions struct {
	ConfigFilePath string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: config.ConfigFile(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the service configuration file. It is generated with defaults when missing.")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	o.ConfigFilePath = filepath.Clean(o.ConfigFilePath)
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if ext := filepath.Ext(o.ConfigFilePath); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must be a .yaml or .yml file, got %q", o.ConfigFilePath)
	}
	if fi, err := os.Stat(o.ConfigFilePath); err == nil && fi.IsDir() {
		return fmt.Errorf("config file %q is a directory", o.ConfigFilePath)
	}
	return nil
}

// LoadConfig reads the config file, writing the defaults first when it does
// not exist yet.
func (o *GlobalOptions) LoadConfig() (*config.Config, error) {
	return config.LoadOrGenerate(o.ConfigFilePath)
}

func validateOutput(output string, legal []string) error {
	if len(output) > 0 && !slices.Contains(legal, output) {
		return fmt.Errorf("output format must be one of (%s)", strings.Join(legal, ", "))
	}
	return nil
}
