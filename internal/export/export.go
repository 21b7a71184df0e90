// Package export writes reference ledger snapshots to disk as JSON or
// MessagePack.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/leapstack-labs/leapgraph/pkg/compiler"
	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/relational"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// SchemaVersion is bumped whenever Snapshot changes shape.
const SchemaVersion uint16 = 1

// Snapshot is the serializable form of a compiled ledger.
type Snapshot struct {
	Version  uint16         `json:"version" msgpack:"version"`
	Created  time.Time      `json:"created" msgpack:"created"`
	Elements int            `json:"elements" msgpack:"elements"`
	Entries  []Entry        `json:"entries" msgpack:"entries"`
	Warnings []diag.Warning `json:"warnings,omitempty" msgpack:"warnings,omitempty"`
}

// Entry lists the references to one node.
type Entry struct {
	Name       string        `json:"name" msgpack:"name"`
	Kind       string        `json:"kind" msgpack:"kind"`
	Declared   *source.Info  `json:"declared,omitempty" msgpack:"declared,omitempty"`
	References []source.Info `json:"references" msgpack:"references"`
}

// NewSnapshot captures the ledger of res. It fails when reference
// collection was disabled.
func NewSnapshot(res *compiler.Result) (*Snapshot, error) {
	refs, err := res.References()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Version:  SchemaVersion,
		Created:  time.Now().UTC(),
		Elements: len(res.Nodes),
		Warnings: res.Warnings,
		Entries:  make([]Entry, 0, len(refs)),
	}
	for n, locs := range refs {
		name, kind := Describe(n)
		snap.Entries = append(snap.Entries, Entry{Name: name, Kind: kind, Declared: n.Location(), References: locs})
	}
	sort.Slice(snap.Entries, func(i, j int) bool {
		a, b := snap.Entries[i], snap.Entries[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Kind < b.Kind
	})
	return snap, nil
}

// Describe returns a display name and kind for a graph node.
func Describe(n graph.Node) (name, kind string) {
	switch v := n.(type) {
	case *graph.Tag:
		return v.String(), "tag"
	case *graph.Stereotype:
		return v.Profile.Path() + "." + v.Value, "stereotype"
	case *graph.Property:
		return v.Owner.Path() + "." + v.Name, "property"
	case *graph.EnumValue:
		return v.Enumeration.Path() + "." + v.Name, "enumValue"
	case *relational.Schema:
		return v.Database.Path() + "." + v.Name, "schema"
	case *relational.Table:
		return v.Ptr().String(), "table"
	case *relational.Column:
		return v.Table.Ptr().String() + "." + v.Name, "column"
	case graph.Element:
		return v.Path(), v.Kind()
	default:
		return fmt.Sprintf("%T#%d", n, n.ID()), "node"
	}
}

// Format selects an encoding.
type Format string

const (
	JSON    Format = "json"
	Msgpack Format = "msgpack"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".msgpack", ".mp":
		return Msgpack, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use .json or .msgpack)", filepath.Ext(path))
	}
}

// Encode writes snap to w.
func Encode(w io.Writer, snap *Snapshot, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case Msgpack:
		return msgpack.NewEncoder(w).Encode(snap)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// Decode reads a snapshot from r.
func Decode(r io.Reader, f Format) (*Snapshot, error) {
	var snap Snapshot
	var err error
	switch f {
	case JSON:
		err = json.NewDecoder(r).Decode(&snap)
	case Msgpack:
		err = msgpack.NewDecoder(r).Decode(&snap)
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != SchemaVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snap.Version, SchemaVersion)
	}
	return &snap, nil
}

// WriteFile encodes snap into path, choosing the format from the extension.
// The file is replaced atomically.
func WriteFile(path string, snap *Snapshot) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".leapgraph-export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Encode(tmp, snap, f); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string) (*Snapshot, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return Decode(file, f)
}
