package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/searchgate/searchgate/internal/mediatype"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

var (
	legalMediaTypesOutputTypes = []string{tableFormat, jsonFormat, yamlFormat}
)

type MediaTypesOptions struct {
	Output   string
	BodyOnly bool

	catalog *mediatype.Catalog
	out     io.Writer
}

type mediaTypeEntry struct {
	MediaType string            `json:"mediaType"`
	Format    string            `json:"format"`
	Body      bool              `json:"body"`
	Params    map[string]string `json:"params,omitempty"`
}

func DefaultMediaTypesOptions() *MediaTypesOptions {
	return &MediaTypesOptions{
		Output: tableFormat,
	}
}

func NewCmdMediaTypes() *cobra.Command {
	o := DefaultMediaTypesOptions()
	cmd := &cobra.Command{
		Use:   "media-types",
		Short: "List the media types the service negotiates and the parameters each accepts.",
		Args:  cobra.NoArgs,
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

func (o *MediaTypesOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalMediaTypesOutputTypes, ", ")))
	fs.BoolVar(&o.BodyOnly, "body-only", o.BodyOnly, "Only list media types accepted for request bodies.")
}

func (o *MediaTypesOptions) Complete(cmd *cobra.Command, args []string) error {
	if o.catalog == nil {
		o.catalog = mediatype.Default()
	}
	o.out = cmd.OutOrStdout()
	return nil
}

func (o *MediaTypesOptions) Validate(args []string) error {
	return validateOutput(o.Output, legalMediaTypesOutputTypes)
}

func (o *MediaTypesOptions) Run(ctx context.Context, args []string) error {
	entries := o.entries()
	switch o.Output {
	case jsonFormat:
		marshalled, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling media types: %w", err)
		}
		fmt.Fprintln(o.out, string(marshalled))
		return nil
	case yamlFormat:
		marshalled, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshalling media types: %w", err)
		}
		fmt.Fprint(o.out, string(marshalled))
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "MEDIA TYPE\tFORMAT\tBODY\tPARAMETERS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", e.MediaType, e.Format, e.Body, formatParams(e.Params))
	}
	return w.Flush()
}

func (o *MediaTypesOptions) entries() []mediaTypeEntry {
	body := lo.SliceToMap(o.catalog.BodyMediaTypes(), func(mt mediatype.MediaType) (string, bool) {
		return mt.Key(), true
	})
	types := o.catalog.MediaTypes()
	if o.BodyOnly {
		types = o.catalog.BodyMediaTypes()
	}
	return lo.Map(types, func(mt mediatype.MediaType, _ int) mediaTypeEntry {
		return mediaTypeEntry{
			MediaType: mt.Key(),
			Format:    mt.Format,
			Body:      body[mt.Key()],
			Params:    o.catalog.ParameterPatterns(mt.Key()),
		}
	})
}

func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return "<none>"
	}
	names := lo.Keys(params)
	sort.Strings(names)
	return strings.Join(lo.Map(names, func(name string, _ int) string {
		return name + "=" + params[name]
	}), ";")
}
