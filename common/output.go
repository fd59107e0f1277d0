package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"
)

const jsonOutputFlag = "json"

type ICommandResult interface {
	GetOutput() string
}

type IExecutable interface {
	Execute(outputter OutputFormatter) (ICommandResult, error)
}

// OutputFormatter collects a command result or error and writes it once the command is done
type OutputFormatter interface {
	io.Writer
	SetError(err error)
	SetCommandResult(result ICommandResult)
	WriteOutput()
	WriteCommandResult(result ICommandResult)
}

type cliOutput struct {
	writer     io.Writer
	errWriter  io.Writer
	jsonFormat bool
	result     ICommandResult
	err        error
}

func InitializeOutputter(cmd *cobra.Command) OutputFormatter {
	jsonFormat, _ := cmd.Flags().GetBool(jsonOutputFlag)

	return &cliOutput{
		writer:     os.Stdout,
		errWriter:  os.Stderr,
		jsonFormat: jsonFormat,
	}
}

// RegisterJSONOutputFlag adds the --json flag to every sub command of root
func RegisterJSONOutputFlag(root *cobra.Command) {
	root.PersistentFlags().Bool(jsonOutputFlag, false, "get all outputs in json format (default false)")
}

func (o *cliOutput) Write(p []byte) (int, error) {
	return o.writer.Write(p)
}

func (o *cliOutput) SetError(err error) {
	o.err = err
}

func (o *cliOutput) SetCommandResult(result ICommandResult) {
	o.result = result
}

func (o *cliOutput) WriteOutput() {
	if o.err != nil {
		_, _ = fmt.Fprintf(o.errWriter, "Error: %v\n", o.err)

		return
	}

	if o.result != nil {
		o.WriteCommandResult(o.result)
	}
}

func (o *cliOutput) WriteCommandResult(result ICommandResult) {
	if o.jsonFormat {
		bytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			_, _ = fmt.Fprintf(o.errWriter, "Error: %v\n", err)

			return
		}

		_, _ = fmt.Fprintln(o.writer, string(bytes))

		return
	}

	_, _ = fmt.Fprint(o.writer, result.GetOutput())
}

// GetCliRunCommand adapts an executable to cobra's Run signature
func GetCliRunCommand(executable IExecutable) func(cmd *cobra.Command, _ []string) {
	return func(cmd *cobra.Command, _ []string) {
		outputter := InitializeOutputter(cmd)
		defer outputter.WriteOutput()

		result, err := executable.Execute(outputter)
		if err != nil {
			outputter.SetError(err)

			return
		}

		outputter.SetCommandResult(result)
	}
}

// FormatKV formats "key|value" rows as aligned columns
func FormatKV(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	columnConf.Glue = " = "

	return columnize.Format(in, columnConf)
}

// FormatList formats "a|b|c" rows as an aligned table
func FormatList(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"

	return columnize.Format(in, columnConf)
}
