// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"os"
	"strconv"
	"strings"

	"github.com/siemens/turtlenest/unsorted"
	"github.com/thediveo/lxkns/model"
	"golang.org/x/exp/slices"
	"golang.org/x/sys/unix"
)

// FindDaemons returns the PIDs of the processes with the specified name (as in
// the “comm” field of /proc/[PID]/stat) that are owned by the specified user.
// procfs is prepended to “/proc” and is empty for the real host.
//
// FindDaemons is used to list running rootless engines when there's no service
// supervisor to ask.
func FindDaemons(procfs string, name string, uid int) []model.PIDType {
	procdir := procfs + "/proc"
	names, err := unsorted.Names(procdir)
	if err != nil {
		return nil
	}
	pids := []model.PIDType{}
	for _, entry := range names {
		pid, err := strconv.Atoi(entry)
		if err != nil {
			continue // not a process
		}
		base := procdir + "/" + entry
		var st unix.Stat_t
		if err := unix.Stat(base, &st); err != nil || int(st.Uid) != uid {
			continue
		}
		stat, err := os.ReadFile(base + "/stat")
		if err != nil {
			continue
		}
		if comm, ok := processName(string(stat)); !ok || comm != name {
			continue
		}
		pids = append(pids, model.PIDType(pid))
	}
	slices.Sort(pids)
	return pids
}

// processName returns the process name from a proc filesystem process “stat”
// line, that is, field #2 without its enclosing brackets. Process names may
// contain closing brackets themselves, so the last closing bracket counts.
func processName(statline string) (string, bool) {
	idx := strings.Index(statline, " (")
	if idx < 0 {
		return "", false
	}
	idx += 2
	lastidx := strings.LastIndex(statline[idx:], ")")
	if lastidx < 0 {
		return "", false
	}
	return statline[idx : idx+lastidx], true
}
