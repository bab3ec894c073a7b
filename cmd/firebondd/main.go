package main

import (
	"os"

	"cosmossdk.io/log"

	"github.com/firebond/firebond/cmd/firebondd/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		log.NewLogger(os.Stderr).Error("failure when running firebondd", "err", err)
		os.Exit(1)
	}
}
