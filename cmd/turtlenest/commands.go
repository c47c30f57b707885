// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"

	"github.com/siemens/turtlenest"
	"github.com/siemens/turtlenest/engine"
	"github.com/siemens/turtlenest/unit"
)

func newInstallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install rootless Docker (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, opts)
		},
	}
}

func runInstall(cmd *cobra.Command, opts *rootOptions) error {
	newopts, err := opts.newOptions(cmd)
	if err != nil {
		return err
	}
	cfg := turtlenest.New(cmd.Context(), newopts...)
	return turtlenest.Run(cmd.Context(), cfg, cmd.OutOrStdout())
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the preconditions for a rootless installation and list host capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			newopts, err := opts.newOptions(cmd)
			if err != nil {
				return err
			}
			cfg := turtlenest.New(cmd.Context(), newopts...)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CAPABILITY\tPRESENT\tDETAIL")
			names := make([]string, 0, len(cfg.Caps))
			for name := range cfg.Caps {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				res := cfg.Caps[name]
				present := fmt.Sprint(res.Present)
				if !res.Present && res.Optional {
					present += " (optional)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, present, res.Detail)
			}
			_ = w.Flush()
			pre, err := turtlenest.Check(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if pre.Installed {
				fmt.Fprintf(cmd.OutOrStdout(), "rootless Docker already installed at %s\n", cfg.DaemonPath())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all preconditions met")
			return nil
		},
	}
}

func newUnitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unit",
		Short: "Print the service descriptor that an installation would write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			newopts, err := opts.newOptions(cmd)
			if err != nil {
				return err
			}
			cfg := turtlenest.New(cmd.Context(), newopts...)
			driver := turtlenest.StorageDriver(cmd.Context(), cfg)
			_, err = cmd.OutOrStdout().Write(
				unit.Render(turtlenest.Descriptor(cfg, turtlenest.Flags(cfg, driver))))
			return err
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configuration and state of the rootless installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			newopts, err := opts.newOptions(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg := turtlenest.New(ctx, newopts...)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bin_dir=%s\n", cfg.BinDir)
			fmt.Fprintf(out, "bin_dir_in_PATH=%t\n", turtlenest.InPath(cfg.Path, cfg.BinDir))
			fmt.Fprintf(out, "installed=%t\n", turtlenest.IsInstalled(cfg))
			fmt.Fprintf(out, "runtime_dir=%s\n", cfg.RuntimeDir)
			fmt.Fprintf(out, "DOCKER_HOST=%s\n", cfg.DockerHost())
			if cfg.Supervisor != nil {
				fmt.Fprintf(out, "supervisor=%s\n", cfg.Supervisor.Name())
				fmt.Fprintf(out, "unit=%s\n", cfg.Supervisor.UnitPath(cfg.Home, unit.ServiceName))
				fmt.Fprintf(out, "active=%t\n", cfg.Supervisor.IsActive(ctx, unit.ServiceName))
			} else {
				fmt.Fprintln(out, "supervisor=none")
				for _, pid := range turtlenest.FindDaemons(cfg.Root, turtlenest.Daemon, cfg.UID) {
					fmt.Fprintf(out, "daemon_pid=%d\n", pid)
				}
			}
			if ep, err := engine.Probe(ctx, cfg.APIPath()); err == nil {
				fmt.Fprintf(out, "engine_id=%s\n", ep.ID)
				fmt.Fprintf(out, "engine_version=%s\n", ep.Version)
				fmt.Fprintf(out, "engine_rootless=%t\n", ep.Rootless)
			} else {
				fmt.Fprintln(out, "engine_reachable=false")
			}
			return nil
		},
	}
}
