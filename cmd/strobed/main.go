package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"strobe/internal/config"
	"strobe/internal/daemonrun"
)

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override log level (debug, info, warn, error)")
	flag.Parse()

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
