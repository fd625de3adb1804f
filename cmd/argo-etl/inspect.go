package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	cdfadapter "github.com/couchcryptid/argo-profile-etl/internal/adapter/cdf"
	"github.com/couchcryptid/argo-profile-etl/internal/decode"
	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type inspectOptions struct {
	format    string
	variables []string
	labels    []string
}

func newInspectCmd() *cobra.Command {
	var opts inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Decode every variable of a NetCDF file and print the value tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cdfadapter.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			return inspect(cmd.OutOrStdout(), f, opts, logger)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringSliceVarP(&opts.variables, "var", "v", nil, "only print these variables")
	cmd.Flags().StringSliceVar(&opts.labels, "label-dim", nil, "extra label dimensions for text decoding")
	return cmd
}

func inspect(w io.Writer, fr domain.FileReader, opts inspectOptions, logger *slog.Logger) error {
	reg := decode.NewRegistry(decode.DefaultVocabulary().With(opts.labels...))
	values, err := reg.DecodeFile(fr, logger)
	if err != nil {
		return err
	}

	out := make(map[string]any, len(values))
	for name, v := range values {
		if len(opts.variables) > 0 && !slices.Contains(opts.variables, name) {
			continue
		}
		out[name] = v.Native()
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

