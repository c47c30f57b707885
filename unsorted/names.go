// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package unsorted

import "os"

// Names reads the specified directory, returning the names of all its
// entries, but neither taking the time to sort them nor to stat them. It
// complements the stdlib's [os.ReadDir] (see also the [go-nuts] discussion).
//
// [go-nuts]:
// https://groups.google.com/g/golang-nuts/c/Q7hYQ9GdX9Q/m/fwYRMIbNDgsJ
func Names(dir string) ([]string, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Readdirnames(-1)
}
