package main

import (
	"os"

	"github.com/templui/portfolio/cmd/portfolioctl/cmd"
)

func main() {
	if err := cmd.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
