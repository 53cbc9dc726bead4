// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	m "github.com/mkhts/navedit"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
		flag.Usage()
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(args); err != nil {
		slog.Error("navedit failed", "error", err)
		os.Exit(1)
	}
}

// Main application processing
func runApplication(args cmdOpt) error {

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	closeLog, err := m.InitLogging(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeLog()

	sopt, err := cfg.SessionOpt(slog.Default())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	s := m.NewSession(sopt)
	s.OnDisorder = func(res m.LoadResult) {
		slog.Warn("time stamps out of order, consider -fixtime or -deletebadtime",
			"session", s.ID, "loaded", res.Loaded)
	}

	// Open input file
	in, err := os.Open(args.inFn)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	// Prepare output file
	out, err := prepareOutput(args)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	defer out.Close()

	w := m.NewNavWriter(out)
	sinks := multiSink{w}
	var track *m.TrackCollector
	if args.geojsonFn != "" {
		track = m.NewTrackCollector()
		sinks = append(sinks, track)
	}

	if err := processStream(args, s, m.NewNavReader(in), sinks, cfg.Buffer.Hold); err != nil {
		return err
	}
	slog.Info("navigation edited", "session", s.ID, "read", s.Buffer().TotalLoaded(), "written", w.Count())

	if track != nil {
		if err := writeTrack(args.geojsonFn, track); err != nil {
			return err
		}
	}
	return nil
}

// Load the config file and apply the options given on the command line
func loadConfig(args cmdOpt) (*m.Config, error) {
	cfg, err := m.LoadConfig(args.cfgFn)
	if err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Model.Kind = args.model.String()
		case "solver":
			cfg.Model.Solver.Method = args.solver
		case "offset":
			cfg.Offset.Lon, cfg.Offset.Lat = args.offset.Lon, args.offset.Lat
		case "capacity":
			cfg.Buffer.Capacity = args.capacity
		case "hold":
			cfg.Buffer.Hold = args.hold
		case "window":
			cfg.Model.MeanTimeWindow = args.window
		case "gap":
			cfg.Time.BadTimeGap = args.badTimeGap
		case "log":
			cfg.Log.Level = args.logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load, repair and dump pages until the input is exhausted
func processStream(args cmdOpt, s *m.Session, src m.Source, sink m.Sink, hold int) error {
	for {
		res, err := s.Load(src)
		if err != nil {
			if !errors.Is(err, m.ErrModelFailed) {
				return fmt.Errorf("failed to load navigation: %w", err)
			}
			slog.Warn("model not updated", "error", err)
		}
		if err := repairPage(args, s); err != nil {
			return err
		}
		if res.ReachedEnd {
			break
		}
		if _, err := s.Dump(sink, hold); err != nil {
			return fmt.Errorf("failed to dump navigation: %w", err)
		}
	}
	if _, err := s.Dump(sink, 0); err != nil {
		return fmt.Errorf("failed to dump navigation: %w", err)
	}
	return nil
}

// Apply the requested edits to the resident records
func repairPage(args cmdOpt, s *m.Session) error {
	if s.Buffer().Len() == 0 {
		return nil
	}
	s.ShowAll()

	if args.deleteBadTime {
		n, _, err := s.DeleteBadTime()
		if err := tolerate(err); err != nil {
			return fmt.Errorf("failed to delete bad time stamps: %w", err)
		}
		if n > 0 {
			slog.Info("bad time stamps deleted", "count", n)
		}
	}
	if args.fixTime {
		if _, _, err := s.FixTime(); tolerate(err) != nil {
			return fmt.Errorf("failed to fix time stamps: %w", err)
		}
	}

	// Edits on the selected time range
	t0, t1 := rangeOf(args, s)
	for _, c := range args.interp {
		if err := onRange(s, c, t0, t1, s.Interpolate); err != nil {
			return fmt.Errorf("failed to interpolate %s: %w", c, err)
		}
	}
	if args.flag {
		for _, c := range []m.Channel{m.ChLon, m.ChLat} {
			if err := onRange(s, c, t0, t1, s.Flag); err != nil {
				return fmt.Errorf("failed to flag %s: %w", c, err)
			}
		}
	}
	for _, c := range args.repeats {
		if err := onRange(s, c, t0, t1, s.InterpolateRepeats); err != nil {
			return fmt.Errorf("failed to interpolate repeated %s: %w", c, err)
		}
	}
	if args.useModel {
		err := onRange(s, m.ChLon, t0, t1, func(m.Channel) (m.Change, error) { return s.UseModel() })
		if err != nil {
			return fmt.Errorf("failed to use model positions: %w", err)
		}
	}
	if args.useSmg {
		if err := onRange(s, m.ChSpeed, t0, t1, func(m.Channel) (m.Change, error) { return s.UseSpeedMadeGood() }); err != nil {
			return fmt.Errorf("failed to use speed made good: %w", err)
		}
	}
	if args.useCmg {
		if err := onRange(s, m.ChHeading, t0, t1, func(m.Channel) (m.Change, error) { return s.UseCourseMadeGood() }); err != nil {
			return fmt.Errorf("failed to use course made good: %w", err)
		}
	}
	return nil
}

// File relative time range selected by -ts and -te
func rangeOf(args cmdOpt, s *m.Session) (float64, float64) {
	start := s.Buffer().FileStart()
	t0, t1 := -1e300, 1e300
	if e := args.ts.Epoch(); e > 0 {
		t0 = e - start
	}
	if e := args.te.Epoch(); e > 0 {
		t1 = e - start
	}
	return t0, t1
}

// Select channel c in [t0, t1], run op and clear the selection
func onRange(s *m.Session, c m.Channel, t0, t1 float64, op func(m.Channel) (m.Change, error)) error {
	defer s.DeselectAll(c)
	if _, err := s.SelectTimeRange(c, t0, t1); err != nil {
		return tolerate(err)
	}
	_, err := op(c)
	return tolerate(err)
}

// Nothing to edit and model failures do not stop the batch
func tolerate(err error) error {
	switch {
	case err == nil, errors.Is(err, m.ErrNoSelection), errors.Is(err, m.ErrEmptyView):
		return nil
	case errors.Is(err, m.ErrModelFailed):
		slog.Warn("model not updated", "error", err)
		return nil
	}
	return err
}

type multiSink []m.Sink

func (p multiSink) Append(r *m.Record) error {
	for _, s := range p {
		if err := s.Append(r); err != nil {
			return err
		}
	}
	return nil
}

// Prepare output file
func prepareOutput(args cmdOpt) (io.WriteCloser, error) {

	// Use stdout if no output file is specified
	if len(args.outFn) == 0 {
		return &nopCloser{os.Stdout}, nil
	}

	// Create output file
	f, err := os.Create(args.outFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func writeTrack(fn string, track *m.TrackCollector) error {
	f, err := os.Create(fn)
	if err != nil {
		return fmt.Errorf("failed to create geojson file: %w", err)
	}
	defer f.Close()
	if _, err := track.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write geojson file: %w", err)
	}
	return nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Command line options
type cmdOpt struct {
	inFn          string
	outFn         string
	cfgFn         string
	geojsonFn     string
	model         m.ModelKind
	solver        string
	offset        m.OffsetVar
	capacity      int
	hold          int
	window        float64
	badTimeGap    float64
	logLevel      string
	fixTime       bool
	deleteBadTime bool
	interp        m.ChannelVar
	repeats       m.ChannelVar
	flag          bool
	useModel      bool
	useSmg        bool
	useCmg        bool
	ts            m.TimeStr
	te            m.TimeStr
}

// Parse command line arguments
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `
[Usage]
	%s [Options] input.nav [output.nav]

[Options]
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	def := m.DefaultConfig()
	flag.StringVar(&a.cfgFn, "c", "", "YAML config file. Defaults are used if omitted or missing.")
	flag.StringVar(&a.geojsonFn, "geojson", "", "Write the edited track to this GeoJSON file.")
	flag.Var(&a.model, "model", "Smoothing model. off, mean, dr, inversion")
	flag.StringVar(&a.solver, "solver", def.Model.Solver.Method, "Inversion solver. chebyshev, direct. Use direct for long views")
	flag.Var(&a.offset, "offset", "Position offset added to loaded records [deg]. Like -offset \"0.001,-0.0005\"")
	flag.IntVar(&a.capacity, "capacity", def.Buffer.Capacity, "Number of records held in memory")
	flag.IntVar(&a.hold, "hold", def.Buffer.Hold, "Number of records kept in memory when a page is written")
	flag.Float64Var(&a.window, "window", def.Model.MeanTimeWindow, "Gaussian mean time window [s]")
	flag.Float64Var(&a.badTimeGap, "gap", def.Time.BadTimeGap, "Time gap treated as suspicious by -deletebadtime [s]")
	flag.StringVar(&a.logLevel, "log", def.Log.Level, "Log level. DEBUG, INFO, WARN, ERROR")
	flag.BoolVar(&a.fixTime, "fixtime", false, "Spread repeated or reversed time stamps between good ones")
	flag.BoolVar(&a.deleteBadTime, "deletebadtime", false, "Delete records with repeated or reversed time stamps")
	flag.Var(&a.interp, "interp", "Channels to interpolate over the -ts/-te range. Comma-separated like time,lon,lat")
	flag.Var(&a.repeats, "interp-repeats", "Channels whose repeated values are interpolated. Comma-separated like lon,lat")
	flag.BoolVar(&a.flag, "flag", false, "Exclude positions in the -ts/-te range from the models")
	flag.BoolVar(&a.useModel, "use-model", false, "Replace positions in the -ts/-te range with the model")
	flag.BoolVar(&a.useSmg, "use-smg", false, "Replace speeds in the -ts/-te range with speed made good")
	flag.BoolVar(&a.useCmg, "use-cmg", false, "Replace headings in the -ts/-te range with course made good")
	flag.TextVar(&a.ts, "ts", m.NewTimeStr(time.Time{}), "Start of the edit range. Enclose in quotes like -ts \"2023/01/01 00:00:00\"")
	flag.TextVar(&a.te, "te", m.NewTimeStr(time.Time{}), "End of the edit range. This epoch is also included.")
	flag.Parse()

	switch flag.NArg() {
	case 1:
		a.inFn = flag.Arg(0)
	case 2:
		a.inFn = flag.Arg(0)
		a.outFn = flag.Arg(1)
	default:
		return a, fmt.Errorf("too less or many arguments")
	}
	if a.useModel && a.model == m.ModelOff && a.cfgFn == "" {
		return a, fmt.Errorf("-use-model needs a model (-model option)")
	}
	return
}
