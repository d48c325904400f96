package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "dreamscape",
		Short:         "Collective dream world synthesis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "dreamscape.yaml", "config file path")

	cmd.AddCommand(
		newServeCmd(opts),
		newWorldCmd(opts),
		newStatusCmd(opts),
		newClassifyCmd(opts),
		newAnalyzeCmd(opts),
	)
	return cmd
}

// withApp builds the app for one command invocation and closes it after.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(a *app) error) error {
	a, err := newApp(cmd.Context(), opts.configPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil {
			a.logger.Warn("app.close.error", "error", cerr.Error())
		}
	}()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
