// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package unit

import "strings"

// ServiceName is the name of the rootless Docker engine service.
const ServiceName = "docker"

// DaemonLauncher is the name of the rootless engine launcher script that is
// part of the rootless extras.
const DaemonLauncher = "dockerd-rootless.sh"

// Docker returns the descriptor for a rootless Docker engine service with its
// binaries in binDir and started with the specified daemon flags.
func Docker(binDir string, flags []string) Descriptor {
	execStart := binDir + "/" + DaemonLauncher
	if len(flags) > 0 {
		execStart += " " + strings.Join(flags, " ")
	}
	return Descriptor{Sections: []Section{
		{Name: "Unit", Fields: []Field{
			{"Description", "Docker Application Container Engine (Rootless)"},
			{"Documentation", "https://docs.docker.com/go/rootless/"},
		}},
		{Name: "Service", Fields: []Field{
			{"Environment", "PATH=" + binDir + ":/sbin:/usr/sbin:/usr/local/bin:/usr/bin:/bin"},
			{"ExecStart", execStart},
			{"ExecReload", "/bin/kill -s HUP $MAINPID"},
			{"TimeoutSec", "0"},
			{"RestartSec", "2"},
			{"Restart", "always"},
			{"StartLimitBurst", "3"},
			{"StartLimitInterval", "60s"},
			{"LimitNOFILE", "infinity"},
			{"LimitNPROC", "infinity"},
			{"LimitCORE", "infinity"},
			{"TasksMax", "infinity"},
			{"Delegate", "yes"},
			{"Type", "simple"},
			{"KillMode", "mixed"},
		}},
		{Name: "Install", Fields: []Field{
			{"WantedBy", "default.target"},
		}},
	}}
}
