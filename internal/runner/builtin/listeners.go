package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	nmap "github.com/Ullaakut/nmap/v3"
)

// listenersAvailable checks for the nmap binary the scan shells out to.
func listenersAvailable() (bool, string) {
	if _, err := exec.LookPath("nmap"); err != nil {
		return false, "nmap not found in PATH"
	}
	return true, ""
}

// listeners enumerates services listening on the loopback interface: a
// cheap answer to "what is this host actually serving" without touching
// anything remote.
func listeners(ctx context.Context) ([]byte, error) {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("127.0.0.1"),
		nmap.WithOpenOnly(),
		nmap.WithSkipHostDiscovery(),
		nmap.WithDisabledDNSResolution(),
	)
	if err != nil {
		return nil, fmt.Errorf("create nmap scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("run nmap: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%-8s %-8s %-8s %s\n", "PORT", "PROTO", "STATE", "SERVICE")
	for _, h := range result.Hosts {
		for _, p := range h.Ports {
			fmt.Fprintf(&buf, "%-8d %-8s %-8s %s\n", p.ID, p.Protocol, p.State.State, p.Service.Name)
		}
	}
	if warnings != nil {
		for _, w := range *warnings {
			fmt.Fprintf(&buf, "warning: %s\n", w)
		}
	}
	fmt.Fprintf(&buf, "\n%s\n", result.Stats.Finished.Summary)
	return buf.Bytes(), nil
}
