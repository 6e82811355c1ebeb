package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/searchgate/searchgate/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

var (
	legalVersionOutputTypes = []string{jsonFormat, yamlFormat}
)

type VersionOptions struct {
	Output string
	out    io.Writer
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		Output: "",
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print searchgate version information.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *VersionOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalVersionOutputTypes, ", ")))
}

func (o *VersionOptions) Complete(cmd *cobra.Command, args []string) error {
	o.out = cmd.OutOrStdout()
	return nil
}

func (o *VersionOptions) Validate(args []string) error {
	return validateOutput(o.Output, legalVersionOutputTypes)
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	info := version.Get()
	switch o.Output {
	case jsonFormat:
		marshalled, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling version: %w", err)
		}
		fmt.Fprintln(o.out, string(marshalled))
	case yamlFormat:
		marshalled, err := yaml.Marshal(info)
		if err != nil {
			return fmt.Errorf("marshalling version: %w", err)
		}
		fmt.Fprint(o.out, string(marshalled))
	default:
		fmt.Fprintf(o.out, "searchgate version: %s\n", info.String())
	}
	return nil
}
