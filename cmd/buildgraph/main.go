package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "devel"

	cmdRoot = &cobra.Command{
		Use:   "buildgraph [command]",
		Short: "buildgraph",
		Long:  `Hash-keyed, cache-aware J2CL-style build orchestrator`,
	}

	cmdVersion = &cobra.Command{
		Use:   "version",
		Short: "Print the version number and exit.",
		Run: func(c *cobra.Command, args []string) {
			c.Printf("buildgraph version %s\n", version)
		},
	}
)

func init() {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	cmdRoot.AddCommand(cmdVersion)
	cmdRoot.AddCommand(cmdBuild)
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		log.Fatal(err)
	}
}
