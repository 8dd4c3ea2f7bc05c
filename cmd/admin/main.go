package main

import (
	"log"
	"os"

	"github.com/deferscky/stringeditor/internal/admin"
)

func main() {
	if err := admin.App(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
