package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pixlab/bumpcheck/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "frbias":
		err = runFRBias(args)
	case "xtalk":
		err = runXTalk(args)
	case "xray":
		err = runXRay(args)
	case "compare":
		err = runCompare(args)
	case "toy":
		err = runToy(args)
	case "inspect":
		err = runInspect(args)
	case "runs":
		err = runRuns(args)
	case "migrate":
		err = runMigrate(args)
	case "version":
		fmt.Printf("bumpcheck %s\n", version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage() {
	fmt.Println(`bumpcheck - missing bump-bond analysis for pixel detector modules

Usage: bumpcheck <command> [options]

Commands:
  frbias     Forward/reverse bias threshold comparison
  xtalk      Cross-talk injection analysis
  xray       X-ray occupancy analysis
  compare    Three-way comparison of the missing maps
  toy        Generate synthetic maps for compare
  inspect    List the objects in a ROOT file
  runs       List, show or delete catalogued runs
  migrate    Manage the run catalogue schema (up, down, status, force)
  version    Show version
  help       Show this help message

Common Flags:
  -config <file>   Analysis config (JSON); flags override it
  -out <dir>       Output root; analyses write to <dir>/<module> (default: results)
  -module <name>   Module name used in titles and file names
  -chip <n>        Chip id
  -db <file>       Run catalogue (SQLite); empty disables recording
  -v               Debug logging

Examples:
  bumpcheck frbias -forward Run000021_SCurve.root -reverse Run000023_SCurve.root -chip 12 -cut 5
  bumpcheck xtalk -same xtalk1.root -coupled xtalk5.root -uncoupled xtalk6.root -chips 12,13
  bumpcheck xray -scurve Run000021_SCurve.root -xray Run000000_NoiseScan.root \
      -mask CMSIT_RD53_RH0027_0_12.txt -module RH0027 -chip 12
  bumpcheck compare -xray xrayroot12.root -xtalk h_missing2dC12.root -frbias histograms.root
  bumpcheck toy -out toy -split toy/split
  bumpcheck runs list -db bumpcheck.db -kind xray
  bumpcheck migrate -db bumpcheck.db status`)
}
