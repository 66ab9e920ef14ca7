package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/neurobooth/xdfsplit/pkg/stream"
	"github.com/neurobooth/xdfsplit/pkg/xdf"
)

// runInspectCmd implements `xdfsplit inspect`: a stream-by-stream summary
// of a container, for checking what a session actually recorded before
// splitting it.
func runInspectCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("inspect", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOut := cmd.Bool("json", false, "Emit the summary as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if cmd.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: xdfsplit inspect [-json] <container.xdf>")
		return 2
	}
	path := cmd.Arg(0)

	file, err := xdf.DecodeFile(path)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	type streamSummary struct {
		Name        string  `json:"name"`
		DeviceID    string  `json:"device_id,omitempty"`
		Format      string  `json:"format"`
		Channels    int     `json:"channels"`
		NominalRate float64 `json:"nominal_srate"`
		Samples     int     `json:"samples"`
		DataVersion string  `json:"data_version,omitempty"`
	}
	summaries := make([]streamSummary, 0, len(file.Streams))
	for _, s := range file.Streams {
		deviceID, _ := s.Info.DescValue(stream.KeyDeviceID)
		version, _ := s.Info.DescValue(stream.KeyDataVersion)
		summaries = append(summaries, streamSummary{
			Name:        s.Info.Name,
			DeviceID:    deviceID,
			Format:      string(s.Info.ChannelFormat),
			Channels:    s.Info.Channels,
			NominalRate: s.Info.NominalSRate,
			Samples:     s.SampleCount(),
			DataVersion: version,
		})
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		return 0
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STREAM\tDEVICE\tFORMAT\tCH\tSRATE\tSAMPLES\tVERSION")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%d\t%s\n",
			s.Name, s.DeviceID, s.Format, s.Channels, s.NominalRate, s.Samples, s.DataVersion)
	}
	w.Flush()
	return 0
}
