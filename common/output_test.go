package common

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type testResult struct {
	Name string `json:"name"`
}

func (r testResult) GetOutput() string {
	return FormatKV([]string{"Name|" + r.Name})
}

func TestCliOutput(t *testing.T) {
	var out, errOut bytes.Buffer

	outputter := &cliOutput{writer: &out, errWriter: &errOut}
	outputter.SetCommandResult(testResult{Name: "relay"})
	outputter.WriteOutput()

	require.Equal(t, "Name = relay", strings.TrimSpace(out.String()))
	require.Empty(t, errOut.String())

	out.Reset()

	outputter = &cliOutput{writer: &out, errWriter: &errOut, jsonFormat: true}
	outputter.SetCommandResult(testResult{Name: "relay"})
	outputter.WriteOutput()

	require.Contains(t, out.String(), `"name": "relay"`)

	out.Reset()

	outputter.SetError(errors.New("boom"))
	outputter.WriteOutput()

	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "boom")
}

func TestFormatList(t *testing.T) {
	output := FormatList([]string{"STATUS|COUNT", "pending|3"})

	lines := strings.Split(output, "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "STATUS"))
	require.True(t, strings.HasPrefix(lines[1], "pending"))
}
