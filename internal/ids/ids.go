package ids

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Load reads the work list, a JSON array of identifier strings.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read id list %s: %w", path, err)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse id list %s: %w", path, err)
	}
	if list == nil {
		return nil, fmt.Errorf("failed to parse id list %s: expected a JSON array", path)
	}
	return list, nil
}

// Set is the immutable membership index over the work list.
type Set struct {
	members map[string]struct{}
}

func NewSet(list []string) Set {
	members := make(map[string]struct{}, len(list))
	for _, id := range list {
		members[id] = struct{}{}
	}
	return Set{members: members}
}

func (s Set) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

func (s Set) Len() int {
	return len(s.members)
}

// Normalize turns an icon's alt text ("Diamond Sword.png") into the
// identifier form used by the work list ("DIAMOND_SWORD").
func Normalize(alt string) string {
	name := strings.TrimSpace(strings.ReplaceAll(alt, ".png", ""))
	return strings.ReplaceAll(strings.ToUpper(name), " ", "_")
}
