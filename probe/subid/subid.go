// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package subid

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/siemens/turtlenest/probe"
	"github.com/thediveo/go-plugger/v3"
	"golang.org/x/exp/slices"
)

// Register the subordinate UID and GID range probe plugins.
func init() {
	plugger.Group[probe.Prober]().Register(
		&Prober{Database: "/etc/subuid"}, plugger.WithPlugin("subuid"))
	plugger.Group[probe.Prober]().Register(
		&Prober{Database: "/etc/subgid"}, plugger.WithPlugin("subgid"))
}

// DefaultRange is the subordinate ID range suggested in remediations, in
// “start:count” notation.
const DefaultRange = "100000:65536"

// Prober checks that a subordinate ID database delegates a non-empty ID range
// to the user, either by user name or by numeric user ID.
type Prober struct {
	Database string // path of the subordinate ID database.
}

// Probe scans the subordinate ID database for an entry of the user.
func (p *Prober) Probe(ctx context.Context, host probe.Host) probe.Result {
	ranges, err := Ranges(host.Root+p.Database, host.User, host.UID)
	if err == nil && len(ranges) > 0 {
		return probe.Result{
			Present: true,
			Detail:  fmt.Sprintf("%s: %s", p.Database, strings.Join(ranges, ", ")),
		}
	}
	detail := "no entry for " + host.User + " in " + p.Database
	if err != nil {
		detail = err.Error()
	}
	return probe.Result{
		Detail: detail,
		Remediation: []string{
			fmt.Sprintf("echo \"%s:%s\" >> %s", host.User, DefaultRange, p.Database),
		},
	}
}

// Ranges returns the non-empty “start:count” subordinate ID ranges delegated
// to the specified user, matching either the user name or numeric user ID.
func Ranges(database string, user string, uid int) ([]string, error) {
	f, err := os.Open(database)
	if err != nil {
		return nil, fmt.Errorf("cannot read subordinate ID database %s, reason: %w",
			database, err)
	}
	defer f.Close()
	owners := []string{user, strconv.Itoa(uid)}
	ranges := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) != 3 || !slices.Contains(owners, fields[0]) {
			continue
		}
		if _, err := strconv.ParseUint(fields[1], 10, 32); err != nil {
			continue
		}
		count, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil || count == 0 {
			continue
		}
		ranges = append(ranges, fields[1]+":"+fields[2])
	}
	return ranges, scanner.Err()
}
