package multilevel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/fsutil"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// MetadataFile is the name of the metadata record at the disassembly root.
const MetadataFile = ".multi_level.json"

// MetadataVersion is the current metadata schema version.
const MetadataVersion = 1

// Attribute is one recorded wrapper attribute.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Wrapper is the tag and attributes of a stripped element.
type Wrapper struct {
	Tag        string      `json:"tag"`
	Attributes []Attribute `json:"attributes"`
}

// Entry records how one fragment file was stripped and split.
type Entry struct {
	FilePattern           string   `json:"file_pattern"`
	StripTarget           string   `json:"strip_target"`
	StrippedRoot          bool     `json:"stripped_root"`
	RootTag               string   `json:"root_tag"`
	Wrapper               Wrapper  `json:"wrapper"`
	InnerUniqueIDElements []string `json:"inner_unique_id_elements"`
	InnerDir              string   `json:"inner_dir"`
	Format                string   `json:"format"`
}

// Metadata maps fragment paths, relative to the disassembly root and
// slash-separated, to their entries.
type Metadata struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// NewMetadata returns an empty record at the current version.
func NewMetadata() *Metadata {
	return &Metadata{Version: MetadataVersion, Entries: make(map[string]Entry)}
}

// Load reads the metadata record under root. found is false when none exists.
func Load(root string) (meta *Metadata, found bool, err error) {
	path := filepath.Join(root, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewMetadata(), false, nil
		}
		return nil, false, errs.FS("read multi-level metadata", path, err)
	}

	meta = &Metadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, true, errs.New(errs.ErrInconsistentMetadata, "decode multi-level metadata", path, err)
	}
	if meta.Version > MetadataVersion {
		return nil, true, errs.New(errs.ErrInconsistentMetadata, "decode multi-level metadata", path,
			fmt.Errorf("unsupported version %d", meta.Version))
	}
	if meta.Entries == nil {
		meta.Entries = make(map[string]Entry)
	}
	return meta, true, nil
}

// Save writes the metadata record under root, replacing any previous record
// atomically.
func (m *Metadata) Save(root string) error {
	path := filepath.Join(root, MetadataFile)
	m.Version = MetadataVersion
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode multi-level metadata; %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(path, data, 0644); err != nil {
		return errs.FS("write multi-level metadata", path, err)
	}
	return nil
}

func toAttributes(attrs []xmltree.Attr) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, Attribute{Key: a.Key, Value: a.Value})
	}
	return out
}

func fromAttributes(attrs []Attribute) []xmltree.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xmltree.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, xmltree.Attr{Key: a.Key, Value: a.Value})
	}
	return out
}
