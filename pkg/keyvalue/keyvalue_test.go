package keyvalue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNestedDocument(t *testing.T) {
	input := `
"AppState"
{
	"appid"		"620"
	"name"		"Portal 2"
	"UserConfig"
	{
		"language"		"english"
	}
}
`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	state, ok := doc["AppState"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "620", state["appid"])
	assert.Equal(t, "Portal 2", state["name"])

	user, ok := state["UserConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "english", user["language"])
}

func TestParseEscapesAndComments(t *testing.T) {
	input := `
// header comment
"root"
{
	"path"		"C:\\Games\\Steam"
	"quote"		"say \"hi\""
	"tabbed"	"a\tb"
}
`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	root := doc["root"].(map[string]any)
	assert.Equal(t, `C:\Games\Steam`, root["path"])
	assert.Equal(t, `say "hi"`, root["quote"])
	assert.Equal(t, "a\tb", root["tabbed"])
}

func TestParseBareTokens(t *testing.T) {
	doc, err := Parse(strings.NewReader(`key value`))
	require.NoError(t, err)
	assert.Equal(t, "value", doc["key"])
}

func TestParseDuplicateKeysLastWins(t *testing.T) {
	input := `
"k"	"first"
"k"	"second"
`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "second", doc["k"])
}

func TestParseSkipsPlatformConditionals(t *testing.T) {
	input := `
"root"
{
	"win"	"yes"	[$WIN32]
}
`
	doc, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	root := doc["root"].(map[string]any)
	assert.Equal(t, "yes", root["win"])
}

func TestParseDepthBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i <= MaxDepth+1; i++ {
		b.WriteString("\"k\" {\n")
	}
	for i := 0; i <= MaxDepth+1; i++ {
		b.WriteString("}\n")
	}

	_, err := Parse(strings.NewReader(b.String()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"unterminated string": `"open`,
		"unbalanced close":    `"k" "v" }`,
		"unterminated block":  `"k" {`,
		"key without value":   `"k"`,
		"newline in string":   "\"a\nb\" \"v\"",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseAppManifest(t *testing.T) {
	input := `
"AppState"
{
	"appid"		"620"
	"name"		"Portal 2"
	"installdir"		"Portal 2"
	"buildid"		"7877217"
	"SizeOnDisk"		"13178810442"
}
`
	manifest, err := ParseAppManifest(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "620", manifest.AppID)
	assert.Equal(t, "Portal 2", manifest.Name)
	assert.Equal(t, "Portal 2", manifest.InstallDir)
	assert.Equal(t, "7877217", manifest.BuildID)
	assert.Equal(t, int64(13178810442), manifest.SizeOnDisk)
}

func TestParseAppManifestMissingAppState(t *testing.T) {
	_, err := ParseAppManifest(strings.NewReader(`"Other" { "k" "v" }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AppState")
}

func TestParseAppManifestMissingAppID(t *testing.T) {
	_, err := ParseAppManifest(strings.NewReader(`"AppState" { "name" "x" }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appid")
}

func TestParseLibraryFoldersModernLayout(t *testing.T) {
	input := `
"libraryfolders"
{
	"0"
	{
		"path"		"C:\\Program Files (x86)\\Steam"
		"label"		""
	}
	"1"
	{
		"path"		"D:\\SteamLibrary"
	}
	"contentstatsid"		"-1234"
}
`
	paths, err := ParseLibraryFolders(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		`C:\Program Files (x86)\Steam`,
		`D:\SteamLibrary`,
	}, paths)
}

func TestParseLibraryFoldersFlatLayout(t *testing.T) {
	input := `
"LibraryFolders"
{
	"TimeNextStatsReport"		"0"
	"1"		"D:\\SteamLibrary"
	"2"		"E:\\Games\\Steam"
}
`
	paths, err := ParseLibraryFolders(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{`D:\SteamLibrary`, `E:\Games\Steam`}, paths)
}

func TestParseLibraryFoldersNumericOrdering(t *testing.T) {
	input := `
"libraryfolders"
{
	"10"	"J:\\lib10"
	"2"		"B:\\lib2"
}
`
	paths, err := ParseLibraryFolders(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{`B:\lib2`, `J:\lib10`}, paths)
}
