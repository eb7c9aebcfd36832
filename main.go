package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions holds all CLI flags
type AppOptions struct {
	ConfigFile  string
	LibraryFile string
	Learn       string
	Input       string
	Recognize   string
	List        bool
	Remove      string
	Render      string
	Output      string
	MqttMode    bool
	HttpMode    bool
	HttpPort    int
	Variant     string
	NumPoints   int
	Workers     int
	LabelKey    string
	Simplify    float64
}

// Application is the set of modes the CLI can dispatch to
type Application interface {
	ApplyOptions(opts AppOptions)
	RunLearn() error
	RunRecognize() error
	RunList() error
	RunRemove() error
	RunRender() error
	RunService() error
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("Error: %v", err)
	}
}

func run(args []string, stdout io.Writer, app Application) error {
	fs := flag.NewFlagSet("tudogesture", flag.ContinueOnError)
	fs.SetOutput(stdout)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to configuration file")
	fs.StringVar(&opts.LibraryFile, "library", "", "Template library file (.json or .json.zst); overrides config")
	fs.StringVar(&opts.Learn, "learn", "", "Add the gesture in --input to the library under this label")
	fs.StringVar(&opts.Input, "input", "", "Gesture file for --learn (JSON points or GeoJSON)")
	fs.StringVar(&opts.Recognize, "recognize", "", "Classify the gesture(s) in this file and exit")
	fs.BoolVar(&opts.List, "list", false, "List library labels and template counts")
	fs.StringVar(&opts.Remove, "remove", "", "Remove every template with this label from the library")
	fs.StringVar(&opts.Render, "render", "", "Render the first template with this label")
	fs.StringVar(&opts.Output, "output", "gesture.svg", "Output file for --render (.svg or .png)")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Run MQTT recognition service")
	fs.BoolVar(&opts.HttpMode, "http", false, "Enable HTTP server")
	fs.IntVar(&opts.HttpPort, "http-port", 8080, "HTTP server port (default 8080)")
	fs.StringVar(&opts.Variant, "variant", "", "Recognizer variant: angle or quantized; overrides config")
	fs.IntVar(&opts.NumPoints, "points", 0, "Resampled points per cloud; overrides config")
	fs.IntVar(&opts.Workers, "workers", 1, "Goroutines per recognition (0 = one per CPU)")
	fs.StringVar(&opts.LabelKey, "label-key", "label", "GeoJSON feature property holding the label")
	fs.Float64Var(&opts.Simplify, "simplify", 0, "Douglas-Peucker tolerance applied to GeoJSON strokes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "tudogesture version: %s\n", Version)
	app.ApplyOptions(opts)

	switch {
	case opts.Learn != "":
		return app.RunLearn()
	case opts.Recognize != "":
		return app.RunRecognize()
	case opts.List:
		return app.RunList()
	case opts.Remove != "":
		return app.RunRemove()
	case opts.Render != "":
		return app.RunRender()
	case opts.MqttMode || opts.HttpMode:
		return app.RunService()
	}

	fmt.Fprintln(stdout, "Use --learn LABEL --input FILE to add a template")
	fmt.Fprintln(stdout, "Use --recognize FILE to classify a gesture")
	fmt.Fprintln(stdout, "Use --list to show the template library")
	fmt.Fprintln(stdout, "Use --remove LABEL to delete templates")
	fmt.Fprintln(stdout, "Use --render LABEL --output FILE to draw a template")
	fmt.Fprintln(stdout, "Use --mqtt and/or --http to run the recognition service")
	return nil
}
