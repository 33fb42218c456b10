package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/server"
	"github.com/SammMarshall/samsbet/pkg/transport"
	"github.com/SammMarshall/samsbet/pkg/util/samsbet"
)

const usage = `usage: samsbet [-env file] [command]

commands:
  serve                                 MCP server on stdin/stdout (default)
  analyze [-save] [-venue] [-no-h2h] <eventID>
  rerun <runID>
  runs
  runs delete <runID>
  events [YYYY-MM-DD]
  leagues list
  leagues add [-overwrite] <leagueID> <seasonID>
  leagues add -page <url> -name <name> [-country c] <leagueID> <seasonID>
  leagues remove <name>
  leagues refresh
`

func main() {
	envFile := flag.String("env", ".env", "dotenv file with SAMSBET_* settings")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := samsbet.LoadConfig(*envFile)
	if err != nil {
		logger.Fatal("Invalid configuration", err)
	}
	configureLogging(cfg)
	defer logger.Close()

	args := flag.Args()
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	logger.Info("Starting samsbet", cmd)

	ctx := context.Background()
	if err := run(ctx, cfg, cmd, args); err != nil {
		logger.Error("Command failed:", err)
		os.Exit(1)
	}
}

func configureLogging(cfg *samsbet.Config) {
	logger.SetShowDateTime(true)
	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("Invalid log level:", err)
	}
	if cfg.LogOutput != "" {
		if err := logger.SetLogOutput(rune(cfg.LogOutput[0]), cfg.LogFile); err != nil {
			logger.Warn("Keeping console logging:", err)
		}
		logger.SetColor(cfg.LogOutput == "c")
	}
}

func run(ctx context.Context, cfg *samsbet.Config, cmd string, args []string) error {
	client := samsbet.NewClient(cfg)
	switch cmd {
	case "serve":
		return serve(ctx, cfg, client)
	case "analyze":
		return analyze(ctx, cfg, client, args)
	case "rerun", "runs":
		store, err := samsbet.OpenStore(ctx, cfg.DbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		svc := samsbet.NewService(cfg, client, store)
		if cmd == "runs" && len(args) > 0 {
			if args[0] != "delete" || len(args) != 2 {
				return errors.New("usage: samsbet runs delete <runID>")
			}
			removed, err := svc.DeleteRun(ctx, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Deleted run %s with %d snapshots\n", args[1], removed)
			return nil
		}
		if cmd == "runs" {
			runs, err := svc.Runs(ctx)
			if err != nil {
				return err
			}
			return printJSON(runs)
		}
		if len(args) != 1 {
			return errors.New("usage: samsbet rerun <runID>")
		}
		report, err := svc.Rerun(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(report)
	case "events":
		day := time.Now()
		if len(args) > 0 {
			var err error
			if day, err = time.Parse("2006-01-02", args[0]); err != nil {
				return fmt.Errorf("invalid date %q: %w", args[0], err)
			}
		}
		events, err := client.ScheduledEvents(ctx, day)
		if err != nil {
			return err
		}
		return printJSON(events)
	case "leagues":
		return leagues(ctx, cfg, client, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, cfg *samsbet.Config, client *samsbet.Client) error {
	store, err := samsbet.OpenStore(ctx, cfg.DbPath)
	if err != nil {
		logger.Warn("Running without persistence:", err)
		store = nil
	} else {
		defer store.Close()
	}
	svc := samsbet.NewService(cfg, client, store)
	s := server.NewDefault(transport.NewStdioTransport(), cfg, svc, client, filepath.Join(cfg.AssetsPath, "prompts"))
	if err := s.Start(ctx); err != nil {
		return err
	}
	logger.Info("MCP server shutting down")
	return nil
}

func analyze(ctx context.Context, cfg *samsbet.Config, client *samsbet.Client, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	save := fs.Bool("save", false, "persist the inputs of this run")
	venue := fs.Bool("venue", false, "home figures from home games, away from away games")
	noH2H := fs.Bool("no-h2h", false, "skip the head to head report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: samsbet analyze [-save] [-venue] [-no-h2h] <eventID>")
	}
	eventID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", fs.Arg(0), err)
	}

	var store *samsbet.Store
	if *save {
		if store, err = samsbet.OpenStore(ctx, cfg.DbPath); err != nil {
			return err
		}
		defer store.Close()
	}
	opts := samsbet.DefaultMatchOptions()
	opts.Save = *save
	opts.FilterByVenue = *venue
	opts.WithH2H = !*noH2H
	report, err := samsbet.NewService(cfg, client, store).MatchAnalysis(ctx, eventID, opts)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func leagues(ctx context.Context, cfg *samsbet.Config, client *samsbet.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: samsbet leagues list|add|remove|refresh")
	}
	lf, err := samsbet.LoadLeagues(cfg.LeaguesFile)
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		return printJSON(lf.Leagues)
	case "add":
		fs := flag.NewFlagSet("leagues add", flag.ContinueOnError)
		overwrite := fs.Bool("overwrite", false, "replace a league already on file")
		page := fs.String("page", "", "provider web page to read the standings from")
		name := fs.String("name", "", "league name, required with -page")
		country := fs.String("country", "", "league country, used with -page")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return errors.New("usage: samsbet leagues add [-overwrite] <leagueID> <seasonID>")
		}
		leagueID, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid league id: %w", err)
		}
		seasonID, err := strconv.ParseInt(fs.Arg(1), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid season id: %w", err)
		}
		if *page != "" {
			if *name == "" {
				return errors.New("-name is required with -page")
			}
			err = lf.AddFromPage(ctx, client, *page, *name, *country, leagueID, seasonID, *overwrite, cfg.Workers)
		} else {
			_, err = lf.Add(ctx, client, leagueID, seasonID, *overwrite, cfg.Workers)
		}
		if err != nil {
			return err
		}
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: samsbet leagues remove <name>")
		}
		if err := lf.Remove(args[1]); err != nil {
			return err
		}
	case "refresh":
		updated, failed, err := lf.RefreshLastEvents(ctx, client, cfg.Workers)
		if err != nil {
			return err
		}
		logger.Info("Refreshed last events, updated:", updated, "failed:", failed)
	default:
		return fmt.Errorf("unknown leagues command %q", args[0])
	}
	return lf.Save()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
