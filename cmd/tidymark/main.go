package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/MrSnakeDoc/tidymark/internal/app"
	"github.com/MrSnakeDoc/tidymark/internal/config"
	"github.com/MrSnakeDoc/tidymark/internal/version"
)

func main() {
	var (
		envFile     string
		opts        app.Options
		showVersion bool
	)
	pflag.StringVar(&envFile, "env-file", "", "load TIDYMARK_* variables from this file (default .env when present)")
	pflag.BoolVar(&opts.RebuildIndex, "rebuild-index", false, "re-index the corpus instead of restoring the snapshot")
	pflag.BoolVar(&opts.FlushCache, "flush-cache", false, "drop cached pairs and the index snapshot before starting")
	pflag.BoolVarP(&showVersion, "version", "v", false, "print version and exit")
	pflag.Parse()

	if showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	if err := config.LoadEnvFile(envFile); err != nil {
		log.Fatalf("❌ tidymark failed to load env file: %v", err)
	}

	ctx := context.Background()
	a, err := app.New(ctx, config.Load(), opts)
	if err != nil {
		log.Fatalf("❌ tidymark failed to start: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("❌ tidymark stopped with error: %v", err)
	}
}
