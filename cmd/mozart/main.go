package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/hysds/mozart-go/models"
	"github.com/hysds/mozart-go/mozart"
	"github.com/hysds/mozart-go/pkg/poll"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	models.NewEnv()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "job-types":
		err = runJobTypes(ctx, os.Args[2:])
	case "status":
		err = runStatus(ctx, os.Args[2:])
	case "wait":
		err = runWait(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

func usage() {
	fmt.Fprint(os.Stderr, "DESCRIPTION\n")
	fmt.Fprint(os.Stderr, "Command-line client for a HySDS job-orchestration cluster.\n")
	fmt.Fprint(os.Stderr, "\n")
	fmt.Fprint(os.Stderr, "COMMANDS\n")
	fmt.Fprint(os.Stderr, "  init       Create or update the config file\n")
	fmt.Fprint(os.Stderr, "  job-types  List the cluster's on-demand job types\n")
	fmt.Fprint(os.Stderr, "  status     Show the status of a job\n")
	fmt.Fprint(os.Stderr, "  wait       Block until a job reaches a terminal state\n")
}

func initializeFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "FLAGS of %s\n", name)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlagsFromArgs(fs *pflag.FlagSet, args []string) {
	err := fs.Parse(args)
	switch {
	case err == pflag.ErrHelp:
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err.Error())
		fs.Usage()
		os.Exit(2)
	}
}

func runJobTypes(ctx context.Context, args []string) error {
	fs := initializeFlagSet("job-types")
	configPath := fs.StringP("config", "c", "", "Path of the config file")
	parseFlagsFromArgs(fs, args)

	client, err := mozart.NewFromConfigFile(*configPath)
	if err != nil {
		return err
	}
	jobTypes, err := client.GetJobTypes(ctx)
	if err != nil {
		return err
	}

	specs := make([]string, 0, len(jobTypes))
	for spec := range jobTypes {
		specs = append(specs, spec)
	}
	sort.Strings(specs)
	for _, spec := range specs {
		fmt.Println(jobTypes[spec].String())
	}
	return nil
}

func runStatus(ctx context.Context, args []string) error {
	fs := initializeFlagSet("status")
	configPath := fs.StringP("config", "c", "", "Path of the config file")
	jobID := fs.String("id", "", "Job id to query")
	parseFlagsFromArgs(fs, args)
	if *jobID == "" {
		return fmt.Errorf("--id must be supplied")
	}

	client, err := mozart.NewFromConfigFile(*configPath)
	if err != nil {
		return err
	}
	status, err := client.GetJobStatus(ctx, *jobID)
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}

func runWait(ctx context.Context, args []string) error {
	fs := initializeFlagSet("wait")
	configPath := fs.StringP("config", "c", "", "Path of the config file")
	jobID := fs.String("id", "", "Job id to wait for")
	timeout := fs.Duration("timeout", 0, "Give up after this long; 0 waits forever")
	parseFlagsFromArgs(fs, args)
	if *jobID == "" {
		return fmt.Errorf("--id must be supplied")
	}

	client, err := mozart.NewFromConfigFile(*configPath)
	if err != nil {
		return err
	}

	policy := poll.Default()
	if *timeout > 0 {
		policy.MaxWait = *timeout
	}
	start := time.Now()
	status, err := client.GetJobByID(*jobID).WaitForCompletionWithPolicy(ctx, policy)
	if err != nil {
		return err
	}
	fmt.Printf("%s after %s\n", status, time.Since(start).Round(time.Second))
	return nil
}
