package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the persisted properties of an entity. encoding/json
// writes map keys in sorted order, so equal property maps hash equally.
func Fingerprint(meta Metadata, entity any) (uint64, error) {
	props, err := meta.Properties(entity)
	if err != nil {
		return 0, err
	}
	data, err := json.Marshal(props)
	if err != nil {
		return 0, fmt.Errorf("failed to encode properties of %T: %w", entity, err)
	}
	return xxhash.Sum64(data), nil
}
