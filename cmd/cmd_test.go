package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliasesFixture = "../internal/fixture/testdata/aliases.yaml"

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLeq(t *testing.T) {
	out, err := execute(t, LeqCmd, "--verify", aliasesFixture)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "List(Int) <= Ord: true", lines[2])
	assert.Equal(t, "List(Bool) <= Ord: false", lines[3])
	assert.Equal(t, "List('x) <= Ord: true", lines[5])
}

func TestLeqUnexpected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrong.yaml")
	fixture := `
assumptions:
  - leq: [Int, Num]
queries:
  - leq: [Num, Int]
    expect: true
  - eq: [Int, Num]
    expect: false
`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	out, err := execute(t, LeqCmd, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 queries")
	assert.Contains(t, out, "Num <= Int: false (expected true)")
	assert.Contains(t, out, "Int == Num: false\n")
}

func TestPaths(t *testing.T) {
	out, err := execute(t, PathsCmd, aliasesFixture)
	require.NoError(t, err)

	sections := strings.Split(out, "\nList(Int) <= Ord:\n")
	require.Len(t, sections, 2)
	assert.Contains(t, sections[0], "aliases.yaml:7:5")
	assert.Contains(t, sections[0], "aliases.yaml:9:5")
	assert.True(t, strings.HasPrefix(sections[1], "   no derivation\n"))
}

func TestDot(t *testing.T) {
	out, err := execute(t, DotCmd, aliasesFixture)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph G1 {\n"))
	assert.Contains(t, out, `[label="argument of withA"];`)
}

func TestMissingFixture(t *testing.T) {
	_, err := execute(t, DotCmd, "testdata/none.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read fixture")
}
