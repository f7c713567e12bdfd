package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/meshcast/core/dispatch"
	"github.com/kilianp07/meshcast/core/model"
)

var sendChannel string

var sendCmd = &cobra.Command{
	Use:   "send [--channel key] <message...>",
	Short: "Send one message to a channel",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendChannel, "channel", "", "channel key (default: first configured channel)")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	p := out(cmd)
	m, err := svc.Compose(sendChannel, strings.Join(args, " "))
	if err != nil {
		return err
	}
	msgs := []model.OutboundMessage{m}
	printMessages(p, msgs)
	res, err := svc.Broadcast(cmd.Context(), msgs)
	if err != nil {
		return err
	}
	printResult(p, res, svc.DryRun())
	if !svc.DryRun() && res.Count(dispatch.StatusSent) == 0 {
		return errors.New("message not sent")
	}
	return nil
}
