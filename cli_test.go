package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/sizeconv/units"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newCmd(&Config{})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "convert", "1", "GB", "MB")
	require.NoError(t, err)
	assert.Equal(t, "1 GB = 1,024 MB\n", out)

	out, err = execute(t, "convert", "1536", "kb", "mb", "--precision", "2")
	require.NoError(t, err)
	assert.Equal(t, "1536 KB = 1.50 MB\n", out)
}

func TestConvertCommandErrors(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "convert", "ten", "GB", "MB")
	assert.ErrorIs(t, err, units.ErrInvalidInput)

	_, err = execute(t, "convert", "1", "GB", "PB")
	assert.ErrorIs(t, err, units.ErrUnknownUnit)

	_, err = execute(t, "convert", "1", "GB")
	assert.Error(t, err)

	_, err = execute(t, "convert", "1", "GB", "MB", "--precision", "9")
	assert.Error(t, err)
}

func TestTableCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "table", "1", "GB")
	require.NoError(t, err)

	for _, want := range []string{"UNIT", "1,073,741,824", "1,048,576", "1,024", "TB"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[")

	_, err = execute(t, "table", "x", "GB")
	assert.ErrorIs(t, err, units.ErrInvalidInput)
}

func TestVersionFlag(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "sizeconv v"+releaseVersion+"\n", out)
}
