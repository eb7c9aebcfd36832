package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kwv/tudogesture/cloud"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *cloud.Config
	Registry   *cloud.Registry
	Service    *cloud.Service
	MQTTClient *cloud.MQTTClient
	Publisher  *cloud.Publisher
	Stdout     io.Writer

	// CLI Flags (effectively dependencies)
	ConfigFile  string
	LibraryFile string
	Learn       string
	Input       string
	Recognize   string
	Remove      string
	Render      string
	Output      string
	Variant     string
	NumPoints   int
	Workers     int
	LabelKey    string
	Simplify    float64
	HttpPort    int
	MqttMode    bool
	HttpMode    bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{Stdout: os.Stdout}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.LibraryFile = opts.LibraryFile
	a.Learn = opts.Learn
	a.Input = opts.Input
	a.Recognize = opts.Recognize
	a.Remove = opts.Remove
	a.Render = opts.Render
	a.Output = opts.Output
	a.Variant = opts.Variant
	a.NumPoints = opts.NumPoints
	a.Workers = opts.Workers
	a.LabelKey = opts.LabelKey
	a.Simplify = opts.Simplify
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// loadConfig reads the config file and applies flag overrides. A missing
// default config.yaml falls back to built-in defaults.
func (a *App) loadConfig() (*cloud.Config, error) {
	config, err := cloud.LoadConfig(a.ConfigFile)
	if err != nil {
		if _, statErr := os.Stat(a.ConfigFile); !os.IsNotExist(statErr) || a.ConfigFile != "config.yaml" {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		log.Printf("Warning: %s not found, using defaults", a.ConfigFile)
		config = cloud.DefaultConfig()
	}

	if a.Variant != "" {
		config.Recognizer.Variant = cloud.Variant(a.Variant)
	}
	if a.NumPoints != 0 {
		config.Recognizer.NumPoints = a.NumPoints
	}
	if a.LibraryFile != "" {
		config.Library = a.LibraryFile
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a.Config = config
	return config, nil
}

// loadRecognizer builds a recognizer from the configured library.
func (a *App) loadRecognizer() (*cloud.Recognizer, *cloud.Library, error) {
	config, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	lib, err := cloud.LoadLibrary(config.Library)
	if err != nil {
		return nil, nil, err
	}

	r, err := cloud.NewRecognizer(config.Recognizer)
	if err != nil {
		return nil, nil, err
	}

	n, err := lib.Populate(r)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Loaded %d templates from %s (%s, %d points)", n, config.Library, r.Options().Variant, r.Options().NumPoints)
	return r, lib, nil
}

// readSamples reads gesture recordings from a GeoJSON FeatureCollection
// (.geojson) or a JSON point payload (anything else).
func (a *App) readSamples(path string) ([]cloud.GestureSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".geojson") {
		samples, err := cloud.ParseGeoJSONSamples(data, a.LabelKey, a.Simplify)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(samples) == 0 {
			return nil, fmt.Errorf("%s: no features", path)
		}
		return samples, nil
	}

	p, err := cloud.DecodeGesturePayload(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []cloud.GestureSample{{Label: p.Label, Points: p.Points}}, nil
}

// RunLearn adds the samples in Input to the library. Samples carrying
// their own label keep it; the rest use the --learn label.
func (a *App) RunLearn() error {
	if a.Input == "" {
		return fmt.Errorf("--learn requires --input")
	}

	r, lib, err := a.loadRecognizer()
	if err != nil {
		return err
	}
	samples, err := a.readSamples(a.Input)
	if err != nil {
		return err
	}

	for i, s := range samples {
		label := s.Label
		if label == "" {
			label = a.Learn
		}
		// Reject samples the recognizer cannot normalize before they reach the file.
		count, err := r.AddGesture(label, s.Points)
		if err != nil {
			return fmt.Errorf("sample %d (%s): %w", i, label, err)
		}
		lib.Add(label, s.Points)
		fmt.Fprintf(a.Stdout, "Learned %q (%d templates)\n", label, count)
	}

	if err := cloud.SaveLibrary(a.Config.Library, lib); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Saved %d samples to %s\n", len(lib.Gestures), a.Config.Library)
	return nil
}

// RunRecognize classifies every sample in the Recognize file.
func (a *App) RunRecognize() error {
	r, _, err := a.loadRecognizer()
	if err != nil {
		return err
	}
	samples, err := a.readSamples(a.Recognize)
	if err != nil {
		return err
	}

	for i, s := range samples {
		var res cloud.Result
		if a.Workers == 1 {
			res, err = r.Recognize(s.Points)
		} else {
			res, err = r.RecognizeConcurrent(context.Background(), s.Points, a.Workers)
		}
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		fmt.Fprintln(a.Stdout, a.formatResult(res))
	}
	return nil
}

func (a *App) formatResult(res cloud.Result) string {
	if !res.Matched() {
		return res.Label
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (distance %.3f", res.Label, res.Distance)
	if res.Scored {
		fmt.Fprintf(&b, ", score %.2f", res.Score)
	}
	fmt.Fprintf(&b, ", %s)", res.Elapsed.Round(time.Microsecond))
	if res.Scored && a.Config != nil && res.Score < a.Config.MinScore {
		b.WriteString(" [low confidence]")
	}
	return b.String()
}

// RunList prints every label in the library with its sample count.
func (a *App) RunList() error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	lib, err := cloud.LoadLibrary(config.Library)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Stdout, "Library: %s\n", config.Library)
	for _, label := range lib.Labels() {
		fmt.Fprintf(a.Stdout, "  %-20s %d\n", label, lib.Count(label))
	}
	fmt.Fprintf(a.Stdout, "%d samples, %d labels\n", len(lib.Gestures), len(lib.Labels()))
	return nil
}

// RunRemove deletes every sample with the Remove label.
func (a *App) RunRemove() error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	lib, err := cloud.LoadLibrary(config.Library)
	if err != nil {
		return err
	}

	n := lib.Remove(a.Remove)
	if n == 0 {
		return fmt.Errorf("no templates labeled %q in %s", a.Remove, config.Library)
	}
	if err := cloud.SaveLibrary(config.Library, lib); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Removed %d samples labeled %q\n", n, a.Remove)
	return nil
}

// RunRender draws the first template labeled Render to Output.
func (a *App) RunRender() error {
	r, _, err := a.loadRecognizer()
	if err != nil {
		return err
	}

	var tmpl *cloud.Template
	for _, t := range r.Templates() {
		if t.Label == a.Render {
			tmpl = &t
			break
		}
	}
	if tmpl == nil {
		return fmt.Errorf("no template labeled %q", a.Render)
	}

	f, err := os.Create(a.Output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", a.Output, err)
	}
	defer f.Close()

	renderer := cloud.NewCloudRenderer(*tmpl)
	if strings.EqualFold(filepath.Ext(a.Output), ".png") {
		err = renderer.RenderToPNG(f)
	} else {
		err = renderer.RenderToSVG(f)
	}
	if err != nil {
		return fmt.Errorf("rendering %q: %w", a.Render, err)
	}
	fmt.Fprintf(a.Stdout, "Rendered %q to %s\n", a.Render, a.Output)
	return nil
}

// RunService runs MQTT and/or HTTP until interrupted.
func (a *App) RunService() error {
	fmt.Fprintln(a.Stdout, "Starting tudogesture service...")

	r, lib, err := a.loadRecognizer()
	if err != nil {
		return err
	}
	config := a.Config

	a.Registry = cloud.NewRegistry(r, lib, config.Library)
	a.Registry.SetWorkers(a.Workers)
	a.Service = cloud.NewService(a.Registry, config)

	if a.MqttMode {
		mqttClient, err := cloud.InitMQTT(config, a.Service.HandleRecognize, a.Service.HandleLearn)
		if err != nil {
			return fmt.Errorf("failed to initialize MQTT: %w", err)
		}
		if mqttClient == nil {
			return fmt.Errorf("MQTT broker not configured in %s", a.ConfigFile)
		}
		a.MQTTClient = mqttClient

		a.Publisher = cloud.NewPublisher(mqttClient.GetClient())
		a.Publisher.SetPrefix(config.MQTT.PublishPrefix)
		a.Service.SetPublisher(a.Publisher)
		fmt.Fprintln(a.Stdout, "MQTT result publisher initialized")
	}

	if a.HttpMode {
		httpServer := newHTTPServer(a.Registry, config.MinScore)
		go func() {
			addr := fmt.Sprintf("0.0.0.0:%d", a.HttpPort)
			log.Printf("[HTTP] Starting server on %s", addr)
			if err := http.ListenAndServe(addr, httpServer); err != nil {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
		}()
	}

	fmt.Fprintln(a.Stdout, "\nService Running")
	fmt.Fprintln(a.Stdout, "===============")

	if a.MqttMode {
		prefix := config.MQTT.PublishPrefix
		if env := os.Getenv("MQTT_PUBLISH_PREFIX"); env != "" {
			prefix = env
		}
		fmt.Fprintln(a.Stdout, "\nMQTT:")
		fmt.Fprintf(a.Stdout, "  Recognize: %s\n", config.MQTT.SubscribeTopic)
		if config.MQTT.LearnTopic != "" {
			fmt.Fprintf(a.Stdout, "  Learn:     %s\n", config.MQTT.LearnTopic)
		}
		fmt.Fprintf(a.Stdout, "  Publishing to: %s/result, %s/learned\n", prefix, prefix)
	}

	if a.HttpMode {
		fmt.Fprintf(a.Stdout, "\nHTTP endpoints (port %d):\n", a.HttpPort)
		fmt.Fprintln(a.Stdout, "  GET  /health               - Health check")
		fmt.Fprintln(a.Stdout, "  GET  /templates            - Labels and counts")
		fmt.Fprintln(a.Stdout, "  POST /templates            - Learn a gesture")
		fmt.Fprintln(a.Stdout, "  GET  /templates/{i}.svg    - Rendered template (also .png)")
		fmt.Fprintln(a.Stdout, "  POST /recognize            - Classify a gesture")
		fmt.Fprintln(a.Stdout, "  GET  /last                 - Last recognition result")
	}

	fmt.Fprintln(a.Stdout, "\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Fprintln(a.Stdout, "\nShutting down service...")
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	fmt.Fprintln(a.Stdout, "Service stopped")
	return nil
}
