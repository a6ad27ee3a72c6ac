package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passagekit/passage/pkg/version"
)

func TestVersionCmd_DefaultOutput(t *testing.T) {
	cmd := newVersionCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "passage")
	assert.Contains(t, output, version.Version)
	assert.Contains(t, output, "commit")
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	cmd := newVersionCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--json"})

	err := cmd.Execute()

	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, version.Version, info["version"])
	assert.Contains(t, info, "commit")
	assert.Contains(t, info, "go_version")
	assert.Contains(t, info, "os")
	assert.Contains(t, info, "arch")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"init", "ingest", "search", "stats", "version"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}
