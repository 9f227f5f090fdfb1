package main

import (
	"github.com/spf13/cobra"
)

var releaseVersion = "0.1.0"

func main() {
	opts := &options{}
	cobra.CheckErr(newCmd(opts).Execute())
}
