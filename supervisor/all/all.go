// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package all

import (
	_ "github.com/siemens/turtlenest/supervisor/systemd" // systemd user manager
)
