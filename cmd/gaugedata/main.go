package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/gaugedata/internal/app"
	"github.com/chrissnell/gaugedata/internal/constants"
	"github.com/chrissnell/gaugedata/internal/log"
	"github.com/chrissnell/gaugedata/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gaugedata %s (gauge data format %s)\n", constants.Version, constants.GaugeDataVersion)
		os.Exit(0)
	}

	// The configuration names the log file, so it is loaded before logging
	// is set up.
	filename, _ := filepath.Abs(*cfgFile)
	provider := config.NewYAMLProvider(filename)
	cfgData, err := provider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading config file. Did you pass the -config flag? Run with -h for help: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(*debug, cfgData.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	application := app.New(provider, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		log.Sync()
		os.Exit(1)
	}
}
