// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package turtlenest

import (
	"context"
	"io"
)

// Run carries out a complete rootless installation: it checks the
// preconditions, installs the engine and registers it with the service
// supervisor, if any, finally printing usage instructions to w. When an
// existing installation is detected, Run only prints the current
// configuration and succeeds without downloading anything.
func Run(ctx context.Context, c *Config, w io.Writer) error {
	pre, err := Check(ctx, c)
	if err != nil {
		return err
	}
	if pre.Installed {
		driver := StorageDriver(ctx, c)
		PrintExisting(w, c, &Registration{
			Driver:     driver,
			Flags:      Flags(c, driver),
			Supervised: c.Supervisor != nil,
		})
		return nil
	}
	if err := Install(ctx, c); err != nil {
		return err
	}
	reg, err := Register(ctx, c)
	if err != nil {
		return err
	}
	PrintInstructions(w, c, reg)
	return nil
}
