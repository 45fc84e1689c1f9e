package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hysds/mozart-go/models"
)

func runInit(args []string) error {
	fs := initializeFlagSet("init")
	configPath := fs.StringP("config", "c", "", "Path of the config file")
	parseFlagsFromArgs(fs, args)

	path := *configPath
	if path == "" {
		defaultPath, err := models.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}
	return initializeConfig(path, os.Stdin, os.Stdout)
}

// initializeConfig Prompts for the cluster settings, carrying over
// existing values when the answer is left empty, and writes the config
// file.
func initializeConfig(path string, in io.Reader, out io.Writer) error {
	cfg := &models.Config{}
	if existing, err := models.LoadConfig(path); err == nil {
		cfg = existing
	} else {
		fmt.Fprintf(out, "%s not found, creating a new config\n", path)
	}

	reader := bufio.NewScanner(in)

	answers := &models.Config{
		Host:     promptValue(reader, out, "HySDS host", cfg.Host),
		Username: promptValue(reader, out, "Username", cfg.Username),
	}
	if err := cfg.Merge(answers); err != nil {
		return err
	}
	if cfg.Username == "" {
		return fmt.Errorf("username must be supplied")
	}

	fmt.Fprint(out, "HySDS cluster authenticated (y/n): ")
	var answer string
	if reader.Scan() {
		answer = strings.TrimSpace(reader.Text())
	}
	cfg.Auth = strings.EqualFold(answer, "y")

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "config written to %s\n", path)
	return nil
}

func promptValue(reader *bufio.Scanner, out io.Writer, label, current string) string {
	if current != "" {
		fmt.Fprintf(out, "%s (current value: %s): ", label, current)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	if reader.Scan() {
		return strings.TrimSpace(reader.Text())
	}
	return ""
}
