// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package all

import (
	_ "github.com/siemens/turtlenest/probe/iptables" // firewall integration
	_ "github.com/siemens/turtlenest/probe/subid"    // subordinate UID/GID ranges
	_ "github.com/siemens/turtlenest/probe/uidmap"   // newuidmap/newgidmap helpers
	_ "github.com/siemens/turtlenest/probe/userns"   // user namespace kernel knobs
)
