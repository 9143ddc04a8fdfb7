package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/datatect/pkg/schema"
)

// NewStrictifyCommand creates the strictify command.
func NewStrictifyCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "strictify",
		Short: "Print the closed-world form of a schema",
		Long: `Print a schema after hardening, exactly as validate and scan use it.

Every object type gets additionalProperties: false and a required list naming
all of its properties. Object types nested under properties, items and oneOf
are hardened too. The result is compiled before it is printed, so an invalid
schema is reported here as well.`,
		Example: `  datatect strictify -s schema.yaml
  datatect strictify -s schema.yaml --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStrictify(cmd, format)
		},
	}

	cmd.Flags().StringP("schema", "s", "", "Schema file (YAML or JSON)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json|yaml)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runStrictify(cmd *cobra.Command, format string) error {
	var marshal func(any) ([]byte, error)
	switch format {
	case "json":
		marshal = schema.MarshalJSON
	case "yaml":
		marshal = schema.MarshalYAML
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}

	cc, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}
	if err := cc.Cfg.ValidateSchema(); err != nil {
		return err
	}

	node, err := schema.LoadFile(cc.Cfg.Schema)
	if err != nil {
		return err
	}
	node, err = schema.StrictifyChecked(node)
	if err != nil {
		return &schema.CompileError{Err: err}
	}
	if _, err := schema.Compile(node); err != nil {
		return err
	}

	data, err := marshal(node)
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	_, err = cc.Renderer.Write(data)
	return err
}
