package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/ekaya-bim/pkg/adapters/datasource/postgres" // registers the postgres adapter
	"github.com/ekaya-inc/ekaya-bim/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bim/pkg/config"
	"github.com/ekaya-inc/ekaya-bim/pkg/database"
	"github.com/ekaya-inc/ekaya-bim/pkg/logging"
	"github.com/ekaya-inc/ekaya-bim/pkg/models"
	"github.com/ekaya-inc/ekaya-bim/pkg/report"
	"github.com/ekaya-inc/ekaya-bim/pkg/repositories"
	"github.com/ekaya-inc/ekaya-bim/pkg/services"
	"github.com/ekaya-inc/ekaya-bim/pkg/table"
)

// Version is set at build time via ldflags
var Version = "dev"

type options struct {
	configPath string
	mode       string
	source     string
	object     string
	stage      string
	version    int
	out        string
	crm        string
	debug      bool
	migrate    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.DefaultPath, "path to the YAML configuration")
	flag.StringVar(&opts.mode, "mode", "volumes", "what to run: volumes, premises or check (connectivity only)")
	flag.StringVar(&opts.source, "source", "", "source workbook with element types and objects (volumes mode)")
	flag.StringVar(&opts.object, "object", "", "construction object id (premises mode)")
	flag.StringVar(&opts.stage, "stage", "", "stage name (premises mode)")
	flag.IntVar(&opts.version, "version", models.LatestVersion, "model version index; -1 selects the latest")
	flag.StringVar(&opts.out, "out", "", "output directory (overrides report.output_dir)")
	flag.StringVar(&opts.crm, "crm", "", "sales CRM export to compare premises with (premises mode)")
	flag.BoolVar(&opts.debug, "debug", false, "debug logging")
	flag.BoolVar(&opts.migrate, "migrate", false, "apply the fixture schema before running (development databases only)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "ekaya-bim: %s\n", logging.SanitizeError(err))
		if errors.Is(err, apperrors.ErrNoData) || errors.Is(err, apperrors.ErrNoMatchingElements) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath, Version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.out != "" {
		cfg.Report.OutputDir = opts.out
	}
	if opts.source != "" {
		cfg.Report.SourcePath = opts.source
	}
	if opts.crm != "" {
		cfg.Report.CRMPath = opts.crm
	}

	logger, err := logging.New(cfg.Env, opts.debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("mode", opts.mode),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("datasource", cfg.Datasource.Type),
		zap.String("calcs_relation", cfg.Schema.CalcsRelation))

	if opts.migrate {
		if err := migrate(cfg, logger); err != nil {
			return err
		}
	}

	factory := datasource.NewDatasourceAdapterFactory(logger)
	if opts.mode == "check" {
		return runCheck(ctx, cfg, factory)
	}
	exec, err := factory.NewQueryExecutor(ctx, cfg.Datasource.Type, cfg.Database.ToMap())
	if err != nil {
		return fmt.Errorf("failed to connect to %s datasource: %w", cfg.Datasource.Type, err)
	}
	defer exec.Close()

	resolver := services.NewResolutionService(repositories.NewBIMRepository(exec, cfg.Schema), cfg.StageMap(), logger)
	collector := services.NewParameterCollector(repositories.NewParameterRepository(exec), logger)
	writer := report.NewWriter(cfg.Report.OutputDir, cfg.Vocabulary, logger)

	switch opts.mode {
	case "volumes":
		enricher := services.NewEnrichmentService(repositories.NewSectionRepository(exec), cfg.Vocabulary, logger)
		volumes := services.NewVolumesService(resolver, collector, enricher, cfg.Vocabulary, logger)
		return runVolumes(ctx, cfg, volumes, writer)
	case "premises":
		premises := services.NewPremisesService(resolver, collector, cfg.Vocabulary, logger)
		return runPremises(ctx, cfg, opts, premises, writer)
	default:
		return fmt.Errorf("unknown mode %q (want volumes, premises or check)", opts.mode)
	}
}

func migrate(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.OpenSQL(cfg.Database.URL())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// runCheck verifies that the configured database is reachable and is the
// database named in the config.
func runCheck(ctx context.Context, cfg *config.Config, factory datasource.DatasourceAdapterFactory) error {
	display := cfg.Datasource.Type
	for _, info := range factory.ListTypes() {
		if info.Type == cfg.Datasource.Type {
			display = info.DisplayName
		}
	}

	tester, err := factory.NewConnectionTester(ctx, cfg.Datasource.Type, cfg.Database.ToMap())
	if err != nil {
		return fmt.Errorf("failed to connect to %s datasource: %w", display, err)
	}
	defer tester.Close()

	if err := tester.TestConnection(ctx); err != nil {
		return fmt.Errorf("%s connection check failed: %w", display, err)
	}
	fmt.Printf("Connected:               %s, database %s\n", display, cfg.Database.Database)
	return nil
}

func runVolumes(ctx context.Context, cfg *config.Config, volumes services.VolumesService, writer *report.Writer) error {
	if cfg.Report.SourcePath == "" {
		return errors.New("volumes mode needs a source workbook (-source or report.source_path)")
	}
	src, err := report.LoadSource(cfg.Report.SourcePath, cfg.Report.ElementTypesSheet, cfg.Report.ObjectsSheet)
	if err != nil {
		return err
	}

	ds, err := volumes.LoadElements(ctx, src.Objects, src.ElementTypes)
	if err != nil {
		return err
	}
	sums, err := volumes.FloorSums(ds, src.ElementTypes)
	if err != nil {
		return err
	}
	refs, err := volumes.Standards(ds, src.ElementTypes)
	if err != nil {
		return err
	}
	devs, err := volumes.Deviations(ds, src.ElementTypes, src.Objects)
	if err != nil {
		return err
	}
	nom, err := volumes.Nomenclature(ds, src.ElementTypes)
	if err != nil {
		return err
	}
	quality, err := volumes.Quality(ds)
	if err != nil {
		return err
	}

	short := cfg.Report.ShortName
	var written []string
	paths, err := writer.WriteReferences(short+"_standards", src.ElementTypes, sums, refs)
	if err != nil {
		return err
	}
	written = append(written, paths...)
	if paths, err = writer.WriteDeviations(short+"_deviations", src.ElementTypes, devs); err != nil {
		return err
	}
	written = append(written, paths...)
	path, err := writer.WriteNomenclature(short+"_nomenclature.xlsx", src.ElementTypes, nom)
	if err != nil {
		return err
	}
	if path != "" {
		written = append(written, path)
	}
	if path, err = writer.WriteQuality(short, quality); err != nil {
		return err
	}
	written = append(written, path)

	zeroRefs := 0
	for _, rs := range refs {
		for _, r := range rs {
			if r.Undefined() {
				zeroRefs++
			}
		}
	}

	fmt.Printf("Objects resolved:        %d of %d\n", len(ds.Resolution.ObjectIDs()), len(src.Objects))
	for _, m := range quality.Missing {
		fmt.Printf("  missing: %s\n", m)
	}
	fmt.Printf("Elements:                %d\n", ds.Elements.Len())
	fmt.Printf("Unresolved titles:       %d\n", quality.UnresolvedTitles)
	fmt.Printf("Unmatched sections:      %d\n", quality.UnmatchedSections.Len())
	fmt.Printf("Unmatched floors:        %d\n", quality.UnmatchedFloors.Len())
	fmt.Printf("Zero-reference groups:   %d\n", zeroRefs)
	printWritten(written)
	return nil
}

func runPremises(ctx context.Context, cfg *config.Config, opts options, premises services.PremisesService, writer *report.Writer) error {
	id, err := models.ParseID(opts.object)
	if err != nil {
		return fmt.Errorf("premises mode needs -object: %w", err)
	}
	if opts.stage == "" {
		return errors.New("premises mode needs -stage")
	}

	r, err := premises.LoadPremises(ctx, models.ObjectStage{ObjectID: id, Stage: opts.stage}, opts.version)
	if err != nil {
		return err
	}

	crmTable, err := loadCRM(cfg)
	if err != nil {
		return err
	}

	path, err := writer.WritePremises("premises_"+id+".xlsx", r, crmTable)
	if err != nil {
		return err
	}

	livingCount, err := r.SellCount(cfg.Vocabulary.Premises.DestLiving)
	if err != nil {
		return err
	}
	fmt.Printf("Premise parts:           %d\n", r.Parts().Len())
	fmt.Printf("Flats:                   %d\n", livingCount)
	printWritten([]string{path})
	return nil
}

// loadCRM reads the configured CRM export, or returns nil when none is set.
func loadCRM(cfg *config.Config) (*table.Table, error) {
	if cfg.Report.CRMPath == "" {
		return nil, nil
	}
	return report.LoadCRM(cfg.Report.CRMPath, cfg.Report.CRMSheet)
}

func printWritten(paths []string) {
	fmt.Printf("Files written:           %d\n", len(paths))
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
}
