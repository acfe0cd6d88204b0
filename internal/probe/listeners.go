package probe

import (
	"fmt"
	"sort"
	"strings"

	gopsnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/ianheil/macwatchdog-cli/internal/types"
)

// ListListeners enumerates processes listening on network ports. The
// primary source is the kernel connection table; when that is unavailable
// (sandboxed or permission-restricted environments) it falls back to
// parsing lsof output. PIDs are valid only at listing time.
func ListListeners(r Runner) ([]types.PortListener, error) {
	listeners, err := listenersFromConnections()
	if err == nil && len(listeners) > 0 {
		return listeners, nil
	}
	return listenersFromLsof(r)
}

func listenersFromConnections() ([]types.PortListener, error) {
	conns, err := gopsnet.Connections("inet")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var listeners []types.PortListener
	for _, c := range conns {
		if c.Status != "LISTEN" || c.Pid == 0 {
			continue
		}
		name := fmt.Sprintf("pid-%d", c.Pid)
		if p, err := process.NewProcess(c.Pid); err == nil {
			if n, err := p.Name(); err == nil && n != "" {
				name = n
			}
		}
		l := types.PortListener{
			Process: name,
			Port:    formatListenAddr(c.Laddr.IP, c.Laddr.Port),
			PID:     c.Pid,
		}
		if _, dup := seen[l.Identity()]; dup {
			continue
		}
		seen[l.Identity()] = struct{}{}
		listeners = append(listeners, l)
	}
	sortListeners(listeners)
	return listeners, nil
}

// listenersFromLsof parses `lsof -i -n -P` output lines containing LISTEN.
// Fields: COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME.
func listenersFromLsof(r Runner) ([]types.PortListener, error) {
	out, _, err := r.Run("lsof", "-i", "-n", "-P")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var listeners []types.PortListener
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "LISTEN") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		var pid int32
		fmt.Sscanf(fields[1], "%d", &pid)
		l := types.PortListener{
			Process: fields[0],
			Port:    fields[8],
			PID:     pid,
		}
		if _, dup := seen[l.Identity()]; dup {
			continue
		}
		seen[l.Identity()] = struct{}{}
		listeners = append(listeners, l)
	}
	sortListeners(listeners)
	return listeners, nil
}

func formatListenAddr(ip string, port uint32) string {
	switch ip {
	case "", "0.0.0.0", "::", "*":
		return fmt.Sprintf("*:%d", port)
	}
	return fmt.Sprintf("%s:%d", ip, port)
}

func sortListeners(listeners []types.PortListener) {
	sort.Slice(listeners, func(i, j int) bool {
		if listeners[i].Process != listeners[j].Process {
			return listeners[i].Process < listeners[j].Process
		}
		return listeners[i].Port < listeners[j].Port
	})
}

func checkNetworkListeners(env *Env) types.Finding {
	listeners, err := ListListeners(env.Runner)
	if err != nil {
		return types.ErrorFinding("Network Listeners (Open Ports)", "Network Listeners", err)
	}
	f := types.Finding{
		Label:  "Network Listeners (Open Ports)",
		Status: types.StatusOK,
		Info:   []string{"No open listeners found"},
		Tip:    "Tip: Unexpected open ports may indicate unwanted services or malware. Only allow trusted services to listen for network connections.",
	}
	if len(listeners) > 0 {
		f.Status = types.StatusAlert
		f.Info = nil
		for _, l := range listeners {
			f.Info = append(f.Info, l.Describe())
		}
		f.Listeners = listeners
	}
	return f
}
