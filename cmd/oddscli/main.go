package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/internal/processor"
	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
)

func main() {
	// Parse command line flags
	debug := flag.Bool("debug", false, "Enable debug logging")
	envFile := flag.String("env", ".env", "dotenv file with SAMSBET_* settings")
	inputFile := flag.String("input", "", "Input file path (if not provided, arguments or stdin are used)")
	outputFile := flag.String("output", "", "Output file path (if not provided, stdout will be used)")
	flag.Parse()

	logger.SetShowDateTime(true)
	logger.SetLevel(logger.WARN)
	if *debug {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := samsbet.LoadConfig(*envFile)
	if err != nil {
		logger.Fatal("Invalid configuration", err)
	}

	// Determine input source
	var input []byte
	switch {
	case *inputFile != "":
		if input, err = os.ReadFile(*inputFile); err != nil {
			logger.Fatal("Failed to read input file", err)
		}
	case flag.NArg() > 0:
		// e.g. oddscli fair_odds 2.1 1.5 2.5
		request := processor.Request{
			Query:     strings.Join(flag.Args(), " "),
			RequestID: fmt.Sprintf("cli-%d", os.Getpid()),
		}
		if input, err = json.Marshal(request); err != nil {
			logger.Fatal("Failed to create request from command line arguments", err)
		}
	default:
		if input, err = io.ReadAll(os.Stdin); err != nil {
			logger.Fatal("Failed to read from stdin", err)
		}
	}

	result, err := processor.New(cfg).ProcessRequest(context.Background(), input)
	if err != nil {
		logger.Error("Failed to process request", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, append(result, '\n'), 0644); err != nil {
			logger.Fatal("Failed to write to output file", err)
		}
		return
	}
	fmt.Println(string(result))
}
