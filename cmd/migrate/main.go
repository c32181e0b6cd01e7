package main

import (
	"os"

	"account-service/internal/tools/migrate"
)

func main() {
	if err := migrate.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
