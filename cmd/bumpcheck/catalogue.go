package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pixlab/bumpcheck/internal/histio"
	"github.com/pixlab/bumpcheck/internal/store"
)

const defaultDBPath = "bumpcheck.db"

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: bumpcheck inspect <file.root> [more.root ...]")
	}
	for _, path := range fs.Args() {
		f, err := histio.Open(path)
		if err != nil {
			return err
		}
		keys, err := f.Keys()
		f.Close()
		if err != nil {
			return err
		}
		fmt.Printf("%s:\n", path)
		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		for _, k := range keys {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", k.Path, k.Class, k.Title)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func runRuns(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bumpcheck runs list|show|delete [options]")
	}
	action := args[0]
	fs := flag.NewFlagSet("runs "+action, flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath, "Run catalogue path")
	kind := fs.String("kind", "", "Only list runs of this analysis")
	limit := fs.Int("limit", 20, "Maximum number of runs to list (0 for all)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	switch action {
	case "list":
		return listRuns(s, *kind, *limit)
	case "show":
		if fs.NArg() < 1 {
			return errors.New("usage: bumpcheck runs show [-db path] <run_id>")
		}
		return showRun(s, fs.Arg(0))
	case "delete":
		if fs.NArg() < 1 {
			return errors.New("usage: bumpcheck runs delete [-db path] <run_id>")
		}
		if err := s.DeleteRun(fs.Arg(0)); err != nil {
			return err
		}
		fmt.Printf("Deleted run %s\n", fs.Arg(0))
		return nil
	default:
		return fmt.Errorf("unknown runs action: %s", action)
	}
}

func listRuns(s *store.Store, kind string, limit int) error {
	runs, err := s.ListRuns(kind, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tKIND\tMODULE\tCHIP\tCREATED\tOUTPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Kind, r.Module, r.Chip, r.Created().Format(time.RFC3339), r.OutputDir)
	}
	return tw.Flush()
}

func showRun(s *store.Store, id string) error {
	run, err := s.GetRun(id)
	if err != nil {
		return err
	}
	pixels, err := s.RunPixels(id)
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	for _, p := range pixels {
		counts[p.Category]++
	}
	view := struct {
		*store.Run
		PixelCounts map[string]int `json:"pixel_counts"`
	}{run, counts}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath, "Run catalogue path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		printMigrateHelp()
		return errors.New("missing migrate action")
	}

	// Open without migrating; the action decides the schema version.
	s, err := store.OpenRaw(*dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	switch action := fs.Arg(0); action {
	case "up":
		if err := s.MigrateUp(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		fmt.Println("All migrations applied")
	case "down":
		if err := s.MigrateDown(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		fmt.Println("Rolled back one migration")
	case "status":
	case "force":
		if fs.NArg() < 2 {
			return errors.New("usage: bumpcheck migrate force <version>")
		}
		v, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", fs.Arg(1), err)
		}
		if err := s.MigrateForce(v); err != nil {
			return err
		}
		fmt.Printf("Forced version %d\n", v)
	case "help":
		printMigrateHelp()
		return nil
	default:
		printMigrateHelp()
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	version, dirty, err := s.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)
	if dirty {
		fmt.Println("WARNING: a migration failed mid-way; inspect the database and use 'migrate force'.")
	}
	return nil
}

func printMigrateHelp() {
	fmt.Println(`Usage: bumpcheck migrate [-db path] <action>

Actions:
  up              Apply all pending migrations
  down            Roll back the most recent migration
  status          Show the current schema version
  force <version> Set the version without running migrations (recovers a dirty state)
  help            Show this help message`)
}
