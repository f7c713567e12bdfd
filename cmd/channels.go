package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the channel slots configured on the device",
	Args:  cobra.NoArgs,
	RunE:  runChannels,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, _ []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	slots, err := svc.ListChannels(cmd.Context())
	if err != nil {
		return err
	}
	p := out(cmd)
	if len(slots) == 0 {
		p.Warning("no channel slots configured on the device")
		return nil
	}
	rows := make([][]string, 0, len(slots))
	for _, s := range slots {
		name, secret := s.Name, s.Secret
		if name == "" {
			name = "(blank)"
		}
		if secret == "" {
			secret = "(none)"
		}
		rows = append(rows, []string{strconv.Itoa(s.Slot), name, secret})
	}
	p.Table([]string{"SLOT", "NAME", "SECRET"}, rows)
	return nil
}
