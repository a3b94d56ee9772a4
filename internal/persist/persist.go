package persist

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"larder/internal/catalog"
	"larder/internal/frame"
	"larder/internal/source"
	"larder/internal/token"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
)

// Options control one persistence operation. The options are recorded in
// the entry's persist_kwargs so a later refresh redoes the materialization
// identically.
type Options struct {
	// TTL marks the artifact stale once this much time has passed since
	// materialization. Zero means the artifact never expires.
	TTL time.Duration

	// Compression selects the artifact body compression: "none",
	// "zstd" or "brotli". Empty means none.
	Compression string
}

// kwargs serializes the options for the catalog.
func (o Options) kwargs() map[string]any {
	kw := map[string]any{}
	if o.TTL > 0 {
		kw["ttl"] = int64(o.TTL / time.Second)
	}
	if o.Compression != "" {
		kw["compression"] = o.Compression
	}
	return kw
}

// optionsFromKwargs rebuilds Options from a stored persist_kwargs block.
// Integer widths vary with the YAML decoder, so all of them are accepted.
func optionsFromKwargs(kw map[string]any) (Options, error) {
	var o Options
	if v, ok := kw["ttl"]; ok {
		switch n := v.(type) {
		case int:
			o.TTL = time.Duration(n) * time.Second
		case int64:
			o.TTL = time.Duration(n) * time.Second
		case uint64:
			o.TTL = time.Duration(n) * time.Second
		case float64:
			o.TTL = time.Duration(n * float64(time.Second))
		default:
			return Options{}, fmt.Errorf("bad ttl in persist kwargs: %T", v)
		}
	}
	if v, ok := kw["compression"]; ok {
		s, ok := v.(string)
		if !ok {
			return Options{}, fmt.Errorf("bad compression in persist kwargs: %T", v)
		}
		o.Compression = s
	}
	return o, nil
}

// Persist materializes src into the store and catalogs the result under
// src's token (or, when src is itself a persisted copy, under the token
// of what it represents). The returned source reads the stored copy.
//
// The entry records everything needed to reverse and redo the operation:
// the original driver spec, name and metadata for Backtrack, and the
// options for Refresh. An unnamed source is given a generated name.
func (s *Store) Persist(ctx context.Context, src source.Source, opts Options) (source.Source, error) {
	comp, err := frame.ParseCompression(opts.Compression)
	if err != nil {
		return nil, err
	}
	tok, err := token.Resolve(src)
	if err != nil {
		return nil, err
	}

	dir, err := s.PrepareDir(tok)
	if err != nil {
		return nil, err
	}
	stats, err := s.materialize(ctx, src, dir, comp)
	if err != nil {
		if rerr := removeAll(dir); rerr != nil {
			s.logger.Warn("failed to remove aborted artifact directory", "path", dir, "error", rerr)
		}
		return nil, fmt.Errorf("persist %s: %w", tok, err)
	}

	name := src.Name()
	if name == "" {
		name = petname.Generate(2, "-")
	}

	var ttl *int64
	if opts.TTL > 0 {
		seconds := int64(opts.TTL / time.Second)
		ttl = &seconds
	}

	origEntry := src.Entry()
	origMeta := src.Metadata()

	entry := catalog.Entry{
		Name:   name,
		Driver: source.DriverArtifact,
		Args:   map[string]any{"path": dir},
		Metadata: catalog.Metadata{
			ArtifactID:       uuid.Must(uuid.NewV7()).String(),
			Timestamp:        s.now().Unix(),
			TTL:              ttl,
			OriginalTok:      string(tok),
			OriginalName:     src.Name(),
			OriginalSource:   &catalog.Spec{Driver: origEntry.Driver, Args: origEntry.Args},
			OriginalMetadata: &origMeta,
			PersistKwargs:    opts.kwargs(),
			Rows:             stats.Rows,
			Bytes:            stats.Bytes,
			Digest:           stats.Digest,
		},
	}

	art, err := s.registry.OpenEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("persist %s: %w", tok, err)
	}
	if err := s.Add(tok, art); err != nil {
		return nil, err
	}

	s.logger.Info("persisted source",
		"token", tok,
		"name", name,
		"rows", stats.Rows,
		"bytes", stats.Bytes)
	return art, nil
}

// materialize streams every record of src into a frame file in dir.
func (s *Store) materialize(ctx context.Context, src source.Source, dir string, comp frame.Compression) (frame.Stats, error) {
	cur, err := src.Cursor(ctx)
	if err != nil {
		return frame.Stats{}, fmt.Errorf("open cursor: %w", err)
	}
	defer cur.Close()

	w, err := frame.NewWriter(filepath.Join(dir, frame.DataFileName), comp)
	if err != nil {
		return frame.Stats{}, err
	}

	for {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return frame.Stats{}, err
		}
		rec, err := cur.Next()
		if errors.Is(err, source.ErrNoMoreRecords) {
			break
		}
		if err != nil {
			w.Abort()
			return frame.Stats{}, fmt.Errorf("read source: %w", err)
		}
		if err := w.Append(rec); err != nil {
			w.Abort()
			return frame.Stats{}, err
		}
	}
	return w.Close()
}

// Refresh regenerates a persisted artifact in place: the original source
// is reconstructed via Backtrack and re-persisted with the options stored
// at persist time. The catalog key is preserved; the artifact, its ID and
// its timestamp change.
//
// Concurrent refreshes of the same token share one materialization. The
// in-flight refresh is detached from its initiator's context, so a
// cancelled waiter gives up without aborting work other callers depend
// on.
func (s *Store) Refresh(ctx context.Context, v any) (source.Source, error) {
	tok, err := token.Resolve(v)
	if err != nil {
		return nil, err
	}
	return s.refreshes.Do(ctx, tok, func() (source.Source, error) {
		return s.refreshOne(context.WithoutCancel(ctx), tok)
	})
}

func (s *Store) refreshOne(ctx context.Context, tok token.Token) (source.Source, error) {
	entry, err := s.Get(tok)
	if err != nil {
		return nil, err
	}
	orig, err := s.Backtrack(entry)
	if err != nil {
		return nil, err
	}
	opts, err := optionsFromKwargs(entry.Metadata.PersistKwargs)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", tok, err)
	}
	return s.Persist(ctx, orig, opts)
}
