package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"gastruloid/internal/logger"
	"gastruloid/internal/models"
	"gastruloid/pkg/analysis"
	"gastruloid/pkg/config"
	"gastruloid/pkg/fileaccess"
	"gastruloid/pkg/profilestore"
)

// Exit codes
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 2
	exitNotFound      = 3
)

// options holds the parsed command line
type options struct {
	configPath   string
	initConfig   bool
	profileName  string
	listProfiles bool
	saveProfile  bool

	inline models.Profile

	saveIntermediary bool
	workers          int
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("gastruloid", flag.ContinueOnError)
	fs.SetOutput(output)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "gastruloid.yaml", "Path to the YAML configuration file")
	fs.BoolVar(&o.initConfig, "init-config", false, "Write a default configuration file to -config and exit")
	fs.StringVar(&o.profileName, "profile", "", "Run the stored profile with this name")
	fs.BoolVar(&o.listProfiles, "list-profiles", false, "List stored profiles and exit")
	fs.BoolVar(&o.saveProfile, "save-profile", false, "Store the profile given by the inline flags before running")

	fs.StringVar(&o.inline.Name, "name", "", "Profile name (names the results directory)")
	fs.StringVar(&o.inline.Directory, "input", "", "Directory containing the channel TIFF images")
	fs.StringVar(&o.inline.BaseName, "base", "", "Base name of the image sets")
	fs.IntVar(&o.inline.Channels, "channels", 3, "Number of channels per set (3 or 4)")
	fs.StringVar(&o.inline.DapiSuffix, "dapi", "", "Filename suffix of the dapi channel")
	fs.StringVar(&o.inline.RedSuffix, "red", "", "Filename suffix of the red channel")
	fs.StringVar(&o.inline.GreenSuffix, "green", "", "Filename suffix of the green channel")
	fs.StringVar(&o.inline.CyanSuffix, "cyan", "", "Filename suffix of the cyan channel (4-channel sets)")
	fs.StringVar(&o.inline.RedMarker, "red-marker", "", "Marker shown in the red channel")
	fs.StringVar(&o.inline.GreenMarker, "green-marker", "", "Marker shown in the green channel")
	fs.StringVar(&o.inline.CyanMarker, "cyan-marker", "", "Marker shown in the cyan channel")
	fs.IntVar(&o.inline.MinBlobSize, "min-size", 0, "Smallest segmented object kept, in pixels (default from config)")

	fs.BoolVar(&o.saveIntermediary, "save-intermediary", false, "Save a montage of the aligned channels per set")
	fs.IntVar(&o.workers, "workers", 0, "Number of sets processed concurrently (default from config)")

	if err := fs.Parse(args); err != nil {
		return nil, &models.ConfigurationError{Reason: err.Error()}
	}
	return o, nil
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		return exitConfiguration
	}
	var nfErr *models.NotFoundError
	if errors.As(err, &nfErr) {
		return exitNotFound
	}
	return exitFailure
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	if opts.initConfig {
		if err := config.CreateDefaultConfigFile(opts.configPath); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Default configuration written to %s\n", opts.configPath)
		return nil
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.JSON)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.listProfiles {
		names, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	profile, err := resolveProfile(ctx, opts, cfg, store)
	if err != nil {
		return err
	}

	if opts.workers > 0 {
		cfg.Processing.Workers = opts.workers
	}
	if opts.saveIntermediary {
		cfg.Output.SaveIntermediaryResults = true
	}

	fa, root, prefix, err := openOutput(cfg)
	if err != nil {
		return err
	}

	analyzer := analysis.NewAnalyzer(&analysis.Params{
		Profile:                 profile,
		MinFileSize:             cfg.Processing.MinFileSize,
		ClosingRadius:           cfg.Processing.ClosingRadius,
		Workers:                 cfg.Processing.Workers,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
		OutputRoot:              root,
		OutputPrefix:            prefix,
		MetricsFile:             cfg.Output.MetricsFile,
	}, fa, log)

	startTime := time.Now()
	report, err := analyzer.Process()
	if err != nil {
		return err
	}

	if report.NumSets == 0 {
		fmt.Fprintln(stdout, "No image sets found; nothing was written.")
		return nil
	}

	fmt.Fprintf(stdout, "Processed %d image sets in %.2f seconds\n", report.NumSets, time.Since(startTime).Seconds())
	fmt.Fprintf(stdout, "Results written to %s\n", report.OutputDir)
	if len(report.Degraded) > 0 {
		fmt.Fprintf(stdout, "Sets without a segmented specimen (zero profiles): %v\n", report.Degraded)
	}
	return nil
}

// openStore selects the Mongo profile store when a URI is configured and the
// YAML directory store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (profilestore.Store, func(), error) {
	if cfg.Profiles.MongoURI == "" {
		return profilestore.NewYAMLStore(cfg.Profiles.Dir), func() {}, nil
	}

	client, err := profilestore.Connect(ctx, cfg.Profiles.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		_ = client.Disconnect(context.Background())
	}
	return profilestore.NewMongoStore(client, cfg.Profiles.MongoDatabase, cfg.Profiles.MongoCollection), closeFn, nil
}

// resolveProfile loads the named profile, or builds one from the inline flags
func resolveProfile(ctx context.Context, opts *options, cfg *config.Config, store profilestore.Store) (*models.Profile, error) {
	if opts.profileName != "" {
		profile, err := store.Get(ctx, opts.profileName)
		if err != nil {
			return nil, err
		}
		if opts.inline.MinBlobSize > 0 {
			profile.MinBlobSize = opts.inline.MinBlobSize
		}
		return profile, nil
	}

	profile := opts.inline
	if profile.MinBlobSize == 0 {
		profile.MinBlobSize = cfg.Processing.MinBlobSize
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if opts.saveProfile {
		if err := store.Create(ctx, &profile); err != nil {
			return nil, err
		}
	}
	return &profile, nil
}

// openOutput returns the file access for results with its root and key prefix
func openOutput(cfg *config.Config) (fileaccess.FileAccess, string, string, error) {
	if cfg.Output.S3Bucket == "" {
		return &fileaccess.FSAccess{}, cfg.Output.ResultsRoot, "", nil
	}

	client, err := fileaccess.NewS3Client(cfg.Output.S3Region)
	if err != nil {
		return nil, "", "", err
	}
	return fileaccess.MakeS3Access(client), cfg.Output.S3Bucket, cfg.Output.ResultsRoot, nil
}
