package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BuiltinsAlwaysPresent(t *testing.T) {
	root := t.TempDir()

	rules, err := Load(root)
	require.NoError(t, err)

	assert.True(t, rules.Match("checksums.txt"))
	assert.True(t, rules.Match("./checksums.txt"))
	assert.True(t, rules.Match("ignore.txt"))
	assert.True(t, rules.Match("./ignore.txt"))
	assert.True(t, rules.Match(".boxmirror.lock"))
	assert.True(t, rules.Match("./.boxmirror.lock"))
	assert.False(t, rules.Match("data/checksums.txt.bak"))
}

func TestLoad_SkipsCommentsAndBlanks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignore.txt"), []byte(`
# temp files
*.tmp

  # indented comment
secret.key
`), 0o644))

	rules, err := Load(root)
	require.NoError(t, err)

	assert.True(t, rules.Match("scratch.tmp"))
	assert.True(t, rules.Match("secret.key"))
	assert.False(t, rules.Match("# temp files"))
	assert.Equal(t, 2+len(builtinPatterns), rules.Len())
}

func TestMatch_GlobSemantics(t *testing.T) {
	rules := FromPatterns("*.log", "cache/*", "build-?")

	assert.True(t, rules.Match("debug.log"))
	// `*` does not cross a path segment boundary.
	assert.False(t, rules.Match("logs/debug.log"))
	assert.True(t, rules.Match("cache/blob"))
	assert.False(t, rules.Match("cache/sub/blob"))
	assert.True(t, rules.Match("build-a"))
	assert.False(t, rules.Match("build-ab"))
}

func TestMatch_DoubleStarIsNotRecursive(t *testing.T) {
	// `**` is deliberately equivalent to `*`: it does not descend into
	// subdirectories. Pinned so the documented limitation stays stable.
	rules := FromPatterns("cache/**")

	assert.True(t, rules.Match("cache/blob"))
	assert.False(t, rules.Match("cache/sub/blob"))
}

func TestMatch_CaseSensitive(t *testing.T) {
	rules := FromPatterns("*.TMP")

	assert.True(t, rules.Match("a.TMP"))
	assert.False(t, rules.Match("a.tmp"))
}

func TestMatch_BadPatternMatchesNothing(t *testing.T) {
	rules := FromPatterns("[unclosed")

	assert.False(t, rules.Match("unclosed"))
	assert.False(t, rules.Match("[unclosed"))
}
