// Command notecal extracts inline event tags from note files and writes the
// record set to stdout in the encoding named by the subcommand.
//
// Usage:
//
//	notecal <ical|report|json|jsonl> [-config path] <input>
//
// The input is a file-system glob over text documents, or a previously
// produced record file selected by extension (.json, .jsonl/.ndjson, .ics).
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notecal/internal/assemble"
	"notecal/internal/config"
	"notecal/internal/encode"
	appLog "notecal/internal/log"
	"notecal/internal/model"
	"notecal/internal/scan"
	"notecal/internal/temporal"
)

const (
	exitFatal             = 1
	exitInvalidInvocation = 2
)

var subcommands = map[string]bool{
	"ical":   true,
	"report": true,
	"json":   true,
	"jsonl":  true,
}

func main() {
	if len(os.Args) < 2 || !subcommands[os.Args[1]] {
		usage()
		os.Exit(exitInvalidInvocation)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "notecal.yaml", "Path to config file")
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		usage()
		os.Exit(exitInvalidInvocation)
	}
	input := fs.Arg(0)

	conf, err := config.Load(*configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", *configPath)
		os.Exit(exitFatal)
	}
	appLog.SetLevel(conf.LogLevel)

	now := time.Now()

	events, err := loadEvents(input, conf, now)
	if err != nil {
		appLog.Error("failed to load input", err, "input", input)
		os.Exit(exitFatal)
	}

	events = assemble.Filter(events, conf.ExcludePredicates)

	out, err := render(command, events, conf, now)
	if err != nil {
		appLog.Error("failed to encode output", err, "command", command)
		os.Exit(exitFatal)
	}
	fmt.Print(out)
}

// loadEvents selects the input mode by extension: structured-record files
// and calendar feeds load directly, anything else is a glob over text
// documents.
func loadEvents(input string, conf *config.Config, now time.Time) ([]model.Event, error) {
	switch strings.ToLower(filepath.Ext(input)) {
	case ".json":
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		return encode.DecodeJSON(data)
	case ".jsonl", ".ndjson":
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		return encode.DecodeNDJSON(data)
	case ".ics":
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		return encode.DecodeCalendar(data)
	}

	return scan.Glob(input, os.ReadFile, scan.Options{
		EventTags:    conf.EventTags,
		PathExcludes: conf.PathExcludes,
		Assemble: assemble.Options{
			Delimiter:       conf.DelimiterRune(),
			DefaultDuration: time.Duration(conf.DefaultDurationMinutes) * time.Minute,
			Now:             now,
			Resolver:        temporal.NaturalResolver{},
		},
	})
}

func render(command string, events []model.Event, conf *config.Config, now time.Time) (string, error) {
	switch command {
	case "ical":
		title, err := encode.NewTemplate(conf.CalendarTitleTemplate)
		if err != nil {
			return "", err
		}
		description, err := encode.NewTemplate(conf.CalendarDescriptionTemplate)
		if err != nil {
			return "", err
		}
		return encode.EncodeCalendar(events, encode.CalendarOptions{
			Now:                 now,
			DatelessToday:       conf.DatelessEventsToday,
			TitleTemplate:       title,
			DescriptionTemplate: description,
		}), nil

	case "report":
		line, err := encode.NewTemplate(conf.ReportLineTemplate)
		if err != nil {
			return "", err
		}
		return encode.EncodeReport(events, encode.ReportOptions{LineTemplate: line}), nil

	case "json":
		data, err := encode.EncodeJSON(events)
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case "jsonl":
		data, err := encode.EncodeNDJSON(events)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("unknown command %q", command)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: notecal <ical|report|json|jsonl> [-config path] <glob-or-record-file>")
}
