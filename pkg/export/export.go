// Package export writes dispatch log records as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/meshcast/core/dispatch/logging"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// CSVHeader lists the CSV columns in order.
var CSVHeader = []string{"timestamp", "run_id", "channel", "slot", "label", "bytes", "status", "error", "text"}

// Write encodes records in the named format.
func Write(w io.Writer, format string, records []logging.LogRecord) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteJSON writes records to w as an indented JSON array.
func WriteJSON(w io.Writer, records []logging.LogRecord) error {
	if records == nil {
		records = []logging.LogRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes records to w with a header row.
func WriteCSV(w io.Writer, records []logging.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.Timestamp.Format(time.RFC3339),
			r.RunID,
			r.ChannelKey,
			strconv.Itoa(r.Slot),
			r.Label,
			strconv.Itoa(r.Bytes),
			r.Status,
			r.Error,
			r.Text,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
