package main

import (
	"os"

	"github.com/JonMunkholm/orderenhancer/cmd/orderenhancer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
