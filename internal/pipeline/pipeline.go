package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/argo-profile-etl/internal/decode"
	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/couchcryptid/argo-profile-etl/internal/observability"
	"github.com/couchcryptid/argo-profile-etl/internal/profile"
	"github.com/google/uuid"
)

// Opener opens a local source file for reading.
type Opener interface {
	Open(ctx context.Context, path string) (domain.FileReader, error)
}

// Fetcher downloads a remote object to a local file. The returned cleanup
// removes the local copy.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (localPath string, cleanup func(), err error)
}

// Sink persists assembled records. Clear removes every profile record whose
// source_file equals source; the upserts replace by id.
type Sink interface {
	Clear(ctx context.Context, source string) error
	UpsertProfile(ctx context.Context, rec domain.ProfileRecord) error
	UpsertMetadata(ctx context.Context, rec domain.MetadataRecord) error
}

// SinkError wraps a failure reported by the Sink.
type SinkError struct {
	Op  string
	Err error
}

func (e *SinkError) Error() string { return fmt.Sprintf("sink %s: %v", e.Op, e.Err) }

func (e *SinkError) Unwrap() error { return e.Err }

// Options tunes how source files are resolved and decoded.
type Options struct {
	// SourceMarker and SourceURLPrefix build the stored source identifier: the
	// part of the path after the marker is appended to the prefix.
	SourceMarker    string
	SourceURLPrefix string

	Vocabulary         decode.Vocabulary
	RawOnly            []string
	AttributeCacheSize int

	// Fetcher resolves s3:// inputs. Nil rejects them.
	Fetcher Fetcher
}

// Summary reports the outcome of one file.
type Summary struct {
	Source          string
	Profiles        int
	MetadataCreated int
}

// Status is a snapshot of the current or last run.
type Status struct {
	RunID   string `json:"run_id,omitempty"`
	Files   int    `json:"files"`
	Done    int    `json:"done"`
	Failed  int    `json:"failed"`
	Current string `json:"current,omitempty"`
	Running bool   `json:"running"`
}

// Pipeline ingests source files into a Sink, one file at a time.
type Pipeline struct {
	opener   Opener
	sink     Sink
	decoders *decode.Registry
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
	registry *profile.MetadataRegistry

	mu     sync.Mutex
	status Status
}

// New creates a Pipeline with the given reader, sink and observability.
func New(opener Opener, sink Sink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if len(opts.Vocabulary.Names()) == 0 {
		opts.Vocabulary = decode.DefaultVocabulary()
	}
	return &Pipeline{
		opener:   opener,
		sink:     sink,
		decoders: decode.NewRegistry(opts.Vocabulary),
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		registry: profile.NewMetadataRegistry(),
	}
}

// CheckReadiness returns nil once the pipeline has ingested at least one file,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not ingested any files yet")
	}
	return nil
}

// Ready reports whether at least one file has been ingested.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// Status returns a snapshot of the current or last run.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Pipeline) updateStatus(fn func(*Status)) {
	p.mu.Lock()
	fn(&p.status)
	p.mu.Unlock()
}

// Run ingests paths in order with a fresh metadata registry. A failed file is
// logged and the run moves on; the returned error joins every file failure.
func (p *Pipeline) Run(ctx context.Context, paths []string) error {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("run started", "files", len(paths))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.registry = profile.NewMetadataRegistry()
	p.updateStatus(func(s *Status) { *s = Status{RunID: runID, Files: len(paths), Running: true} })
	defer p.updateStatus(func(s *Status) { s.Running = false; s.Current = "" })

	var errs []error
	for _, input := range paths {
		if err := ctx.Err(); err != nil {
			logger.Info("run stopping", "reason", err)
			errs = append(errs, err)
			break
		}
		p.updateStatus(func(s *Status) { s.Current = input })
		sum, err := p.processFile(ctx, logger, input)
		p.updateStatus(func(s *Status) {
			s.Done++
			if err != nil {
				s.Failed++
			}
		})
		if err != nil {
			logger.Error("file failed", "path", input, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", input, err))
			continue
		}
		logger.Info("file ingested", "source_file", sum.Source, "profiles", sum.Profiles, "metadata_created", sum.MetadataCreated)
	}

	logger.Info("run finished", "files", len(paths), "failed", len(errs), "metadata_records", p.registry.Len())
	return errors.Join(errs...)
}

// ProcessFile ingests a single file using the current run's metadata registry.
func (p *Pipeline) ProcessFile(ctx context.Context, input string) (Summary, error) {
	return p.processFile(ctx, p.logger, input)
}

func (p *Pipeline) processFile(ctx context.Context, logger *slog.Logger, input string) (Summary, error) {
	start := time.Now()
	sum, err := p.ingest(ctx, logger, input)
	if err != nil {
		p.metrics.FilesFailed.Inc()
		return sum, err
	}
	p.metrics.FilesProcessed.Inc()
	p.metrics.FileDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return sum, nil
}

func (p *Pipeline) ingest(ctx context.Context, logger *slog.Logger, input string) (Summary, error) {
	source := SourceID(input, p.opts.SourceMarker, p.opts.SourceURLPrefix)
	sum := Summary{Source: source}
	logger = logger.With("source_file", source)

	if err := p.sink.Clear(ctx, source); err != nil {
		return sum, &SinkError{Op: "clear", Err: err}
	}

	local, cleanup, err := p.localCopy(ctx, input)
	if err != nil {
		logger.Warn("cleared records for unreadable source", "error", err)
		return sum, err
	}
	defer cleanup()

	fr, err := p.opener.Open(ctx, local)
	if err != nil {
		logger.Warn("cleared records for unreadable source", "error", err)
		return sum, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := fr.Close(); cerr != nil {
			logger.Warn("close source failed", "error", cerr)
		}
	}()

	ex, err := profile.NewExtractor(fr, p.decoders, profile.Options{
		Source:             source,
		Stem:               Stem(input),
		RawOnly:            p.opts.RawOnly,
		AttributeCacheSize: p.opts.AttributeCacheSize,
		Logger:             logger,
	})
	if err != nil {
		return sum, err
	}
	defer func() { p.metrics.UnsupportedVariables.Add(float64(ex.Unsupported())) }()

	logger.Debug("file opened", "profiles", ex.NumProfiles(), "levels", ex.NumLevels())
	for i := range ex.NumProfiles() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rec, candidate, err := ex.Profile(i)
		if err != nil {
			return sum, fmt.Errorf("profile %d: %w", i, err)
		}

		meta, created := p.registry.Resolve(candidate)
		if created {
			if err := p.sink.UpsertMetadata(ctx, meta); err != nil {
				return sum, &SinkError{Op: "upsert metadata", Err: err}
			}
			p.metrics.MetadataCreated.Inc()
			sum.MetadataCreated++
		}

		rec.Metadata = meta.ID
		rec.ProcessedAt = domain.Now()
		if err := p.sink.UpsertProfile(ctx, rec); err != nil {
			return sum, &SinkError{Op: "upsert profile", Err: err}
		}
		p.metrics.ProfilesUpserted.Inc()
		sum.Profiles++
	}
	return sum, nil
}

func (p *Pipeline) localCopy(ctx context.Context, input string) (string, func(), error) {
	if !IsRemote(input) {
		return input, func() {}, nil
	}
	if p.opts.Fetcher == nil {
		return "", nil, fmt.Errorf("no object storage configured for %s", input)
	}
	local, cleanup, err := p.opts.Fetcher.Fetch(ctx, input)
	if err != nil {
		return "", nil, fmt.Errorf("fetch: %w", err)
	}
	return local, cleanup, nil
}

// IsRemote reports whether input names an object storage location.
func IsRemote(input string) bool {
	return strings.HasPrefix(input, "s3://")
}

// SourceID returns the identifier stored as source_file for input: prefix
// followed by everything after the first marker, or input itself when the
// marker does not occur.
func SourceID(input, marker, prefix string) string {
	if marker == "" {
		return input
	}
	_, rest, found := strings.Cut(input, marker)
	if !found {
		return input
	}
	return prefix + rest
}

// Stem returns the base name of input without its extension.
func Stem(input string) string {
	base := path.Base(strings.ReplaceAll(input, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
