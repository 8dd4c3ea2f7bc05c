package main

import (
	"context"
	"log"
	"os"

	"github.com/deferscky/stringeditor/internal/buildinfo"
	"github.com/deferscky/stringeditor/internal/server"
	"github.com/deferscky/stringeditor/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
