// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/siemens/turtlenest"
)

// rootOptions are the persistent command line options.
type rootOptions struct {
	configPath    string
	binDir        string
	engineURL     string
	engineSHA256  string
	extrasURL     string
	extrasSHA256  string
	policy        string
	storageDriver string
	skipIptables  bool
	force         bool
	enable        bool
	verbose       bool
	verifyTimeout time.Duration

	getenv func(string) string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	return rootCommand(&rootOptions{getenv: os.Getenv}, stdout, stderr)
}

// rootCommand returns the root command with its flags bound to opts.
func rootCommand(opts *rootOptions, stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "turtlenest",
		Short:         "Install a rootless Docker engine into your home directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, opts)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	logrus.SetOutput(stderr)

	defaultConfig := opts.getenv("TURTLENEST_CONFIG")
	if defaultConfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			defaultConfig = turtlenest.DefaultSettingsPath(home)
		}
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", defaultConfig, "path to the settings file (env TURTLENEST_CONFIG)")
	pf.StringVar(&opts.binDir, "bin-dir", "", "installation directory (env DOCKER_BIN; default $HOME/bin)")
	pf.StringVar(&opts.engineURL, "engine-url", "", "location of the static engine archive (env STATIC_RELEASE_URL)")
	pf.StringVar(&opts.engineSHA256, "engine-sha256", "", "expected SHA-256 digest of the engine archive")
	pf.StringVar(&opts.extrasURL, "extras-url", "", "location of the rootless extras archive (env STATIC_RELEASE_ROOTLESS_URL)")
	pf.StringVar(&opts.extrasSHA256, "extras-sha256", "", "expected SHA-256 digest of the rootless extras archive")
	pf.StringVar(&opts.policy, "descriptor-policy", "", `treatment of an existing service descriptor: "keep" still starts the service, "skip" leaves it alone`)
	pf.StringVar(&opts.storageDriver, "storage-driver", "", "storage driver instead of probing for overlay support")
	pf.BoolVar(&opts.skipIptables, "skip-iptables", false, "disable the engine's firewall integration (env SKIP_IPTABLES)")
	pf.BoolVar(&opts.force, "force", false, "install even if a system-wide Docker is accessible (env FORCE_ROOTLESS_INSTALL)")
	pf.BoolVar(&opts.enable, "enable", false, "enable the docker service to start on login")
	pf.DurationVar(&opts.verifyTimeout, "verify-timeout", 30*time.Second, "maximum wait for the started engine to answer; 0 skips")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newInstallCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newUnitCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	return rootCmd
}

// newOptions resolves the installer configuration options, with command line
// flags taking precedence over environment variables, which in turn take
// precedence over the settings file.
func (o *rootOptions) newOptions(cmd *cobra.Command) ([]turtlenest.NewOption, error) {
	settings, err := turtlenest.LoadSettings(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	str := func(flag string, value string, env string, setting string) string {
		if flags.Changed(flag) {
			return value
		}
		if env != "" {
			if v := o.getenv(env); v != "" {
				return v
			}
		}
		if setting != "" {
			return setting
		}
		return value
	}
	boolean := func(flag string, value bool, env string, setting bool) bool {
		if flags.Changed(flag) {
			return value
		}
		if env != "" {
			if v := o.getenv(env); v != "" {
				return v != "0" && v != "false"
			}
		}
		return value || setting
	}
	policy, err := turtlenest.ParseDescriptorPolicy(
		str("descriptor-policy", o.policy, "", settings.DescriptorPolicy))
	if err != nil {
		return nil, err
	}
	engineURL := str("engine-url", o.engineURL, "STATIC_RELEASE_URL", settings.EngineURL)
	extrasURL := str("extras-url", o.extrasURL, "STATIC_RELEASE_ROOTLESS_URL", settings.ExtrasURL)
	if (engineURL == "") != (extrasURL == "") {
		return nil, errors.New("engine and rootless extras archive locations must be specified together")
	}
	return []turtlenest.NewOption{
		turtlenest.WithBinDir(str("bin-dir", o.binDir, "DOCKER_BIN", settings.BinDir)),
		turtlenest.WithArchives(
			engineURL, str("engine-sha256", o.engineSHA256, "", settings.EngineSHA256),
			extrasURL, str("extras-sha256", o.extrasSHA256, "", settings.ExtrasSHA256)),
		turtlenest.WithDescriptorPolicy(policy),
		turtlenest.WithStorageDriver(str("storage-driver", o.storageDriver, "", settings.StorageDriver)),
		turtlenest.WithSkipIptables(boolean("skip-iptables", o.skipIptables, "SKIP_IPTABLES", settings.SkipIptables)),
		turtlenest.WithForce(boolean("force", o.force, "FORCE_ROOTLESS_INSTALL", false)),
		turtlenest.WithEnable(boolean("enable", o.enable, "", settings.Enable)),
		turtlenest.WithVerifyTimeout(o.verifyTimeout),
		turtlenest.WithEnv(o.getenv),
	}, nil
}

// reportError prints the diagnostic for a failed run, including any
// remediation.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", err.Error())
	var ierr *turtlenest.Error
	if !errors.As(err, &ierr) || len(ierr.Remediation) == 0 {
		return
	}
	if ierr.Kind == turtlenest.Capability {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "cat <<EOF | sudo sh -x")
		fmt.Fprintln(w, ierr.Hint())
		fmt.Fprintln(w, "EOF")
		return
	}
	fmt.Fprintln(w, ierr.Hint())
}
