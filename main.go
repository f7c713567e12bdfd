package main

import (
	"os"
	"time"

	"github.com/kilianp07/meshcast/cmd"
	coremon "github.com/kilianp07/meshcast/core/monitoring"
)

func main() {
	tags := map[string]string{"module": "cli"}
	var err error
	coremon.Guard(tags, func() { err = cmd.Execute() })
	if err != nil {
		coremon.CaptureException(err, tags)
		coremon.Flush(2 * time.Second)
		os.Exit(1)
	}
	coremon.Flush(2 * time.Second)
}
