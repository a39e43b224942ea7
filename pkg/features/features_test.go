package features

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/melody/pkg/regfile"
)

func TestAllFeaturesAreWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, feature := range All() {
		assert.NotEmpty(t, feature.Name)
		assert.NotEmpty(t, feature.Description, "feature %s", feature.Name)
		assert.Equal(t, strings.ToLower(feature.Name), feature.Name, "feature names are lowercase")
		assert.False(t, seen[feature.Name], "duplicate feature %s", feature.Name)
		seen[feature.Name] = true

		hasWork := len(feature.RegistryKeys) > 0 || len(feature.FileGlobs) > 0 || feature.Collect != nil
		assert.True(t, hasWork, "feature %s does nothing", feature.Name)

		for _, key := range feature.RegistryKeys {
			_, _, _, err := regfile.SplitRoot(key)
			assert.NoError(t, err, "feature %s key %s", feature.Name, key)
		}
	}
}

func TestAllSortedByName(t *testing.T) {
	features := All()
	for i := 1; i < len(features); i++ {
		assert.Less(t, features[i-1].Name, features[i].Name)
	}
}

func TestSelect(t *testing.T) {
	selected, unknown := Select([]string{"Mouse", " wsl ", "bogus"})
	assert.Equal(t, []string{"bogus"}, unknown)
	require.Len(t, selected, 2)
	assert.Equal(t, "mouse", selected[0].Name)
	assert.Equal(t, "wsl", selected[1].Name)

	all, unknown := Select(nil)
	assert.Empty(t, unknown)
	assert.Len(t, all, len(All()))
}
