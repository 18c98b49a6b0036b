package main

import (
	"os"

	deepstreamcmder "github.com/papercomputeco/deepstream/cmd/deepstream"
)

func main() {
	cmd := deepstreamcmder.NewDeepstreamCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
