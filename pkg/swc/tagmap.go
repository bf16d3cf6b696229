package swc

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// TagMap assigns label names to SWC structure identifiers. A single tag may
// map to several names, all of which are applied to the tagged points.
type TagMap map[int][]string

// DefaultTagMap covers the three standardized SWC structure types.
func DefaultTagMap() TagMap {
	return TagMap{
		1: {"soma"},
		2: {"axon"},
		3: {"dendrites"},
	}
}

// tagMapFile is the on-disk TOML shape:
//
//	[tags]
//	1 = ["soma"]
//	4 = ["dendrites", "apical_dendrites"]
type tagMapFile struct {
	Tags map[string][]string `toml:"tags"`
}

// LoadTagMap reads a tag map from a TOML file. Entries extend and override
// the defaults, so a file only needs to list the non-standard tags.
func LoadTagMap(path string) (TagMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tag map: %w", err)
	}

	var file tagMapFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tag map %s: %w", path, err)
	}

	tags := DefaultTagMap()
	for key, names := range file.Tags {
		tag, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("tag map %s: tag %q is not an integer", path, key)
		}
		tags[tag] = names
	}
	return tags, nil
}
