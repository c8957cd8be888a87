package results

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutIsInsertOnce(t *testing.T) {
	s := New()
	require.True(t, s.Put("DIAMOND_SWORD", Success("Diamond Sword", "Items", "Weapons", "Items/Weapons/Diamond Sword.png")))
	assert.False(t, s.Put("DIAMOND_SWORD", Failure("boom")))

	e, ok := s.Get("DIAMOND_SWORD")
	require.True(t, ok)
	assert.False(t, e.Failed())
	assert.Equal(t, "Diamond Sword", e.Name)
	assert.Equal(t, 1, s.Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Put("A", Failure("not found"))

	snap := s.Snapshot()
	snap["B"] = Failure("x")
	delete(snap, "A")

	assert.True(t, s.Has("A"))
	assert.False(t, s.Has("B"))
}

func TestSnapshotDuringWrites(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Put(string(rune('a'+i%26))+string(rune('A'+i/26)), Failure("x"))
		}
	}()
	for i := 0; i < 100; i++ {
		_ = s.Snapshot()
	}
	wg.Wait()
	assert.Equal(t, 1000, s.Len())
}

func TestEntryJSONShape(t *testing.T) {
	data, err := json.Marshal(Failure("not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "not found"}`, string(data))

	data, err = json.Marshal(Success("Diamond Sword", "Items", "Weapons", "Items/Weapons/Diamond Sword.png"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Diamond Sword",
		"main_category": "Items",
		"sub_category": "Weapons",
		"file": "Items/Weapons/Diamond Sword.png"
	}`, string(data))
}

func TestMarshalRoundTrip(t *testing.T) {
	snap := map[string]Entry{
		"DIAMOND_SWORD": Success("Diamond Sword", "Items", "Weapons", "Items/Weapons/Diamond Sword.png"),
		"GHOST_ITEM":    Failure("not found"),
		"CAFÉ":          Success("Café <&>", "Unknown", "Uncategorized", "Unknown/Uncategorized/Café <&>.png"),
	}
	data, err := Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Café <&>")
	assert.Contains(t, string(data), "\n  \"")

	var decoded map[string]Entry
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(snap, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalEmpty(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"DIAMOND_SWORD": {"name": "Diamond Sword", "main_category": "Items", "sub_category": "Weapons", "file": "Items/Weapons/Diamond Sword.png"},
		"GHOST_ITEM": {"error": "not found"}
	}`), 0644))

	s, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("GHOST_ITEM"))

	s, err = Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Has("GHOST_ITEM"))
	assert.True(t, s.Has("DIAMOND_SWORD"))
}

func TestLoadMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(filepath.Join(dir, "missing.json"), false)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	s, err = Load(empty, false)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"A": `), 0644))
	_, err = Load(bad, false)
	assert.Error(t, err)
}
