package cmd

import (
	"github.com/spf13/cobra"
)

var (
	feedFile    string
	feedChannel string
	feedLimit   int
)

var feedCmd = &cobra.Command{
	Use:   "feed --file <path>",
	Short: "Broadcast quakes, alerts, spots, weather and solar reports from a feed file",
	Args:  cobra.NoArgs,
	RunE:  runFeed,
}

func init() {
	f := feedCmd.Flags()
	f.StringVar(&feedFile, "file", "", "JSON-lines or YAML feed file")
	f.StringVar(&feedChannel, "channel", "", "send every item to this channel")
	f.IntVar(&feedLimit, "limit", 0, "broadcast at most this many items (0: all)")
	_ = feedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(feedCmd)
}

func runFeed(cmd *cobra.Command, _ []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	p := out(cmd)
	msgs, res, err := svc.RunFeed(cmd.Context(), feedFile, feedChannel, feedLimit)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		p.Info("feed is empty")
		return nil
	}
	printMessages(p, msgs)
	printResult(p, res, svc.DryRun())
	return nil
}
