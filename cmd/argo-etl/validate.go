package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cdfadapter "github.com/couchcryptid/argo-profile-etl/internal/adapter/cdf"
	"github.com/couchcryptid/argo-profile-etl/internal/decode"
	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/couchcryptid/argo-profile-etl/internal/observability"
	"github.com/couchcryptid/argo-profile-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var labels []string
	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Assemble every profile without writing and check record integrity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			return validate(cmd.Context(), cmd.OutOrStdout(), cdfadapter.Opener{}, labels, logger, args)
		},
	}
	cmd.Flags().StringSliceVar(&labels, "label-dim", nil, "extra label dimensions for text decoding")
	return cmd
}

// checkSink records integrity violations instead of persisting.
type checkSink struct {
	profiles int
	metadata map[string]bool
	seen     map[string]bool
	problems []string
}

func newCheckSink() *checkSink {
	return &checkSink{metadata: map[string]bool{}, seen: map[string]bool{}}
}

func (c *checkSink) problemf(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

func (c *checkSink) Clear(context.Context, string) error { return nil }

func (c *checkSink) UpsertMetadata(_ context.Context, rec domain.MetadataRecord) error {
	if c.metadata[rec.ID] {
		c.problemf("metadata %s registered twice", rec.ID)
	}
	c.metadata[rec.ID] = true
	return nil
}

func (c *checkSink) UpsertProfile(_ context.Context, rec domain.ProfileRecord) error {
	c.profiles++
	if c.seen[rec.ID] {
		c.problemf("profile %s: duplicate id", rec.ID)
	}
	c.seen[rec.ID] = true
	if !c.metadata[rec.Metadata] {
		c.problemf("profile %s: unknown metadata %q", rec.ID, rec.Metadata)
	}
	if lat := rec.Geolocation.Lat(); lat < -90 || lat > 90 {
		c.problemf("profile %s: latitude %v out of range", rec.ID, lat)
	}
	if lon := rec.Geolocation.Lon(); lon < -180 || lon > 180 {
		c.problemf("profile %s: longitude %v out of range", rec.ID, lon)
	}
	length := -1
	for name, lv := range rec.Data {
		if lv.Empty() {
			c.problemf("profile %s: parameter %s kept without data", rec.ID, name)
		}
		for _, n := range []int{len(lv.Value), len(lv.Adjusted), len(lv.QC), len(lv.AdjustedQC)} {
			if n == 0 {
				continue
			}
			if length >= 0 && n != length {
				c.problemf("profile %s: parameter %s has %d levels, expected %d", rec.ID, name, n, length)
			}
			length = n
		}
	}
	return nil
}

func validate(ctx context.Context, w io.Writer, opener pipeline.Opener, labels []string, logger *slog.Logger, paths []string) error {
	sink := newCheckSink()
	p := pipeline.New(opener, sink, pipeline.Options{
		Vocabulary: decode.DefaultVocabulary().With(labels...),
	}, logger, observability.NewMetricsWith(prometheus.NewRegistry()))
	runErr := p.Run(ctx, paths)

	fmt.Fprintf(w, "profiles: %d\nmetadata records: %d\n", sink.profiles, len(sink.metadata))
	for _, msg := range sink.problems {
		fmt.Fprintln(w, "FAIL", msg)
	}
	if len(sink.problems) > 0 {
		runErr = errors.Join(runErr, fmt.Errorf("%d integrity problems", len(sink.problems)))
	}
	if runErr == nil {
		fmt.Fprintln(w, "OK")
	}
	return runErr
}
