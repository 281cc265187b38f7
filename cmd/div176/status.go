// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/div176/div176/internal/config"
)

// statusTimeout bounds each probe request.
const statusTimeout = 3 * time.Second

// ProbeStatus holds the result of one health probe.
type ProbeStatus struct {
	Probe  string `json:"probe"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running div176 instance",
		Long:  `Query the liveness and readiness probes of a running div176 server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, statusCfg *statusConfig) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	probes := map[string]ProbeStatus{
		"liveness":  queryProbe(cmd.Context(), cfg.Observability.Addr, "/healthz/liveness"),
		"readiness": queryProbe(cmd.Context(), cfg.Observability.Addr, "/healthz/readiness"),
	}

	var output string
	if statusCfg.jsonOutput {
		output, err = formatStatusJSON(probes)
		if err != nil {
			return oops.Code("STATUS_FORMAT_FAILED").With("format", "json").Wrap(err)
		}
	} else {
		output = formatStatusTable(probes)
	}

	cmd.Println(output)
	return nil
}

// queryProbe hits one health endpoint and classifies the outcome.
func queryProbe(ctx context.Context, addr, path string) ProbeStatus {
	status := ProbeStatus{Probe: strings.TrimPrefix(path, "/healthz/")}

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, nil)
	if err != nil {
		status.Status = "unknown"
		status.Error = err.Error()
		return status
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		status.Status = "unreachable"
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error here

	if resp.StatusCode == http.StatusOK {
		status.Status = "ok"
	} else {
		status.Status = fmt.Sprintf("failing (%d)", resp.StatusCode)
	}
	return status
}

func formatStatusJSON(probes map[string]ProbeStatus) (string, error) {
	data, err := json.MarshalIndent(probes, "", "  ")
	if err != nil {
		return "", err //nolint:wrapcheck // caller adds context
	}
	return string(data), nil
}

func formatStatusTable(probes map[string]ProbeStatus) string {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROBE\tSTATUS\tERROR")
	for _, name := range names {
		p := probes[name]
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Probe, p.Status, p.Error)
	}
	_ = w.Flush() //nolint:errcheck // strings.Builder cannot fail
	return strings.TrimRight(sb.String(), "\n")
}
