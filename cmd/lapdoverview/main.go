// Command lapdoverview prints the device-map report of a LAPD HDF5 file:
// mapped MSI diagnostics, digitizer configurations and connections, control
// devices, and any mapping diagnostics.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scigolib/lapd"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <file.hdf5>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := lapd.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "lapdoverview: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Print(f.Overview())
}
