package cmd

import (
	"github.com/kilianp07/meshcast/core/dispatch"
	"github.com/kilianp07/meshcast/core/model"
	"github.com/kilianp07/meshcast/internal/printer"
)

func printMessages(p *printer.Printer, msgs []model.OutboundMessage) {
	for _, m := range msgs {
		p.Message(m.Label, m.ChannelKey, m.Text)
	}
}

func printResult(p *printer.Printer, res dispatch.Result, dry bool) {
	if dry {
		p.Warning("dry run: nothing sent")
		return
	}
	for _, o := range res.Outcomes {
		detail := ""
		if o.Err != nil {
			detail = o.Err.Error()
		}
		p.Outcome(o.Status.String(), o.Message.ChannelKey, o.Message.Label, detail)
	}
	if len(res.Outcomes) > 0 {
		p.Info("sent %d, failed %d, skipped %d",
			res.Count(dispatch.StatusSent), res.Count(dispatch.StatusFailed), res.Count(dispatch.StatusSkipped))
	}
}
