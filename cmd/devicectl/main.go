package main

import (
	"os"

	"github.com/JonMunkholm/devicebulk/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
