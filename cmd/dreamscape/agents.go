package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/dreams"
	"github.com/spf13/cobra"
)

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var dreamID string

	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify a dream and optionally persist its tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				c, _, err := a.ds.Classify(cmd.Context(), strings.Join(args, " "), dreamID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
	cmd.Flags().StringVar(&dreamID, "dream-id", "", "dream to link the extracted tags to")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		summary string
		emotion string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "analyze <text>",
		Short: "Write a psychological interpretation of a dream",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				rec := dreams.Record{
					Summary:   summary,
					RawText:   strings.Join(args, " "),
					Emotion:   emotion,
					CreatedAt: time.Now().UTC(),
				}
				for _, t := range tags {
					rec.Tags = append(rec.Tags, dreams.Tag{Value: t})
				}

				analysis, err := a.ds.Analyze(cmd.Context(), rec)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), analysis)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "one-line dream summary")
	cmd.Flags().StringVar(&emotion, "emotion", "", "dominant emotion")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag value (repeatable)")
	return cmd
}
