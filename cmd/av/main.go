package main

import (
	"log"

	"archivault/cmd/av/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Fatal(err)
	}
}
