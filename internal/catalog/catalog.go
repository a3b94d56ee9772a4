// Package catalog defines the on-disk catalog of persisted sources.
//
// The catalog is one YAML document with a top-level "sources" mapping from
// token to entry spec. Every entry carries the driver and args needed to
// open the materialized artifact, plus a metadata block describing where
// the artifact came from and when it expires.
//
// The catalog has no incremental update support: every mutation rewrites
// the whole document. That is the nature of YAML and is acceptable for the
// small catalogs this store is designed for.
package catalog

import (
	"time"

	"larder/internal/token"
)

// Spec identifies a constructible source: a registered driver name plus
// its constructor args.
type Spec struct {
	Driver string         `yaml:"driver"`
	Args   map[string]any `yaml:"args,omitempty"`
}

// Metadata is the metadata block of a persisted entry.
//
// The original_* fields describe the pre-persistence source exactly, so
// the persist store can reconstruct it (backtrack). PersistKwargs records
// the options the artifact was created with, so a refresh can redo the
// persistence identically.
type Metadata struct {
	// ArtifactID identifies one materialization. A refresh writes a new
	// artifact under the same token and rotates this ID.
	ArtifactID string `yaml:"artifact_id,omitempty"`

	// Timestamp is the artifact creation time in epoch seconds.
	Timestamp int64 `yaml:"timestamp,omitempty"`

	// TTL is the artifact's seconds-to-live. Nil means never expires.
	TTL *int64 `yaml:"ttl,omitempty"`

	OriginalTok      string    `yaml:"original_tok,omitempty"`
	OriginalName     string    `yaml:"original_name,omitempty"`
	OriginalSource   *Spec     `yaml:"original_source,omitempty"`
	OriginalMetadata *Metadata `yaml:"original_metadata,omitempty"`

	PersistKwargs map[string]any `yaml:"persist_kwargs,omitempty"`

	// Artifact stats recorded at persist time.
	Rows   int64  `yaml:"rows,omitempty"`
	Bytes  int64  `yaml:"bytes,omitempty"`
	Digest string `yaml:"digest,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// Expired reports whether the artifact's TTL has elapsed at the given
// time. Entries without a TTL never expire.
func (m Metadata) Expired(now time.Time) bool {
	if m.TTL == nil {
		return false
	}
	elapsed := now.Unix() - m.Timestamp
	return elapsed > *m.TTL
}

// Entry is one persisted record in the catalog.
type Entry struct {
	Name        string         `yaml:"name,omitempty"`
	Driver      string         `yaml:"driver"`
	Description string         `yaml:"description,omitempty"`
	Args        map[string]any `yaml:"args,omitempty"`
	Metadata    Metadata       `yaml:"metadata,omitempty"`
}

// Token returns the entry's own token, derived from its driver and args.
// For a persisted entry this is the token of the artifact copy, not of
// the original source; callers resolving identity want OriginalToken.
func (e Entry) Token() token.Token {
	return token.Derive(e.Driver, e.Args)
}

// OriginalToken returns the token of the pre-persistence source, or ""
// when the entry does not describe a persisted copy.
func (e Entry) OriginalToken() token.Token {
	return token.Token(e.Metadata.OriginalTok)
}

// Document is the full catalog: token → entry.
type Document struct {
	Sources map[string]Entry `yaml:"sources"`
}

// NewDocument returns an empty catalog document.
func NewDocument() *Document {
	return &Document{Sources: map[string]Entry{}}
}
