package main

import (
	"github.com/spf13/cobra"
)

func main() {
	opts := &options{}
	cobra.CheckErr(newCmd(opts).Execute())
}
