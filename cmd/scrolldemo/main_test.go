package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/scrollwizardry/trace"
)

func TestRunHeadlessDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run("", true, 0, "", &out))

	text := out.String()
	assert.Contains(t, text, "panel-pin enter")
	assert.Contains(t, text, "panel-pin leave")
	assert.Contains(t, text, "story-fade")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "events"))
}

func TestRunHeadlessWritesTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.cbor")
	var out bytes.Buffer
	require.NoError(t, run("", true, 0, path, &out))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := trace.ReadAll(f)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for i, r := range records {
		assert.Equal(t, uint64(i+1), r.Seq)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, len(records)+1)
}

func TestRunMissingManifest(t *testing.T) {
	err := run(filepath.Join(t.TempDir(), "nope.yaml"), true, 1, "", &bytes.Buffer{})
	assert.Error(t, err)
}
