package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"gatewatch/internal/capture"
	"gatewatch/internal/config"
	"gatewatch/internal/db"
	"gatewatch/internal/detector"
	"gatewatch/internal/domain/anpr"
	"gatewatch/internal/gate"
	gatehttp "gatewatch/internal/http"
	"gatewatch/internal/ocr"
	"gatewatch/internal/repository"
	"gatewatch/internal/resolver"
	"gatewatch/internal/service"
	"gatewatch/internal/tracker"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Persistence degrades to memory-only when the database is unreachable;
	// only a dead frame source stops the system.
	var repo *repository.ANPRRepository
	if gdb, err := db.Open(cfg.Database.DSN); err != nil {
		log.Error().Err(err).Msg("database unavailable, running without persistence")
	} else {
		if err := db.Migrate(gdb); err != nil {
			log.Error().Err(err).Msg("schema migration failed")
		}
		repo = repository.NewANPRRepository(gdb)
	}

	var store resolver.Store = noopStore{}
	var ledger tracker.Ledger = noopLedger{}
	if repo != nil {
		store = repo
		ledger = repo
	}

	res := resolver.New(store, log)
	track := tracker.New(ledger, tracker.Config{
		Cooldown:            cfg.Tracking.Cooldown,
		ConfidenceThreshold: cfg.OCR.ConfidenceThreshold,
	}, log)

	if repo != nil {
		seedFromLedger(log, repo, res, track)
	}

	engine, err := ocr.NewTesseract(cfg.OCR.Language)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize OCR engine")
	}
	defer engine.Close()

	consensus := ocr.NewConsensus(engine, ocr.Config{
		AutoZoom:        cfg.OCR.AutoZoom,
		ZoomScale:       cfg.OCR.ZoomScale,
		ZoomTopFraction: cfg.OCR.ZoomTopFraction,
	}, log)

	det := detector.New(detector.Config{
		AspectRatioMin: cfg.Detection.AspectRatioMin,
		AspectRatioMax: cfg.Detection.AspectRatioMax,
		WidthMin:       cfg.Detection.WidthMin,
		WidthMaxRatio:  cfg.Detection.WidthMaxRatio,
		HeightMin:      cfg.Detection.HeightMin,
		HeightMaxRatio: cfg.Detection.HeightMaxRatio,
		AreaMin:        cfg.Detection.AreaMin,
		AreaMax:        cfg.Detection.AreaMax,
		TopContours:    cfg.Detection.TopContours,
		MaxPerFrame:    cfg.Detection.MaxPerFrame,
	})

	g := gate.New(gate.Config{
		StabilizationTime: cfg.Detection.StabilizationTime,
		MinFrames:         cfg.Detection.StabilizationFrames,
		EvictEvery:        cfg.Detection.EvictEvery,
		StaleAfter:        cfg.Detection.StaleAfter,
	})

	pipeline := service.NewPipeline(det, g, consensus, res, track, cfg.Detection.BlurThreshold, log)

	if repo != nil {
		go serveHTTP(cfg, repo, log)
	}

	camera, err := capture.Open(cfg.Camera.URL)
	if err != nil {
		log.Fatal().Err(err).Str("camera", cfg.Camera.URL).Msg("failed to open frame source")
	}
	defer camera.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counters := track.Counters()
	log.Info().
		Str("camera", cfg.Camera.URL).
		Str("camera_model", cfg.Camera.Model).
		Int64("detections", counters.Detections).
		Int64("entries", counters.Entries).
		Int64("exits", counters.Exits).
		Msg("gatewatch started")

	runLoop(ctx, camera, pipeline, log)

	counters = track.Counters()
	log.Info().
		Int64("detections", counters.Detections).
		Int64("entries", counters.Entries).
		Int64("exits", counters.Exits).
		Msg("gatewatch stopped")
}

func runLoop(ctx context.Context, camera *capture.Camera, pipeline *service.Pipeline, log zerolog.Logger) {
	frame := gocv.NewMat()
	defer frame.Close()

	for ctx.Err() == nil {
		if !camera.Next(&frame) {
			log.Warn().Msg("frame source ended")
			return
		}
		for _, result := range pipeline.ProcessFrame(ctx, frame) {
			logResult(log, result)
		}
	}
}

func logResult(log zerolog.Logger, result service.CandidateResult) {
	switch result.State {
	case service.StateCooldown:
		log.Debug().
			Str("plate", result.Plate).
			Dur("remaining", result.CooldownLeft).
			Msg("plate in cooldown")
	case service.StateRecorded:
		// recorded detections are logged by the tracker
	default:
		log.Debug().
			Str("state", string(result.State)).
			Str("box", result.Box.String()).
			Msg("candidate dropped")
	}
}

func seedFromLedger(log zerolog.Logger, repo *repository.ANPRRepository, res *resolver.Resolver, track *tracker.Tracker) {
	ctx := context.Background()

	if seeds, err := repo.LoadKnownRegions(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load region cache, starting empty")
	} else {
		for _, seed := range seeds {
			res.Seed(seed.Plate, seed.Region)
		}
		if len(seeds) > 0 {
			log.Info().Int("plates", len(seeds)).Msg("loaded plate-region mappings")
		}
	}

	if dirs, err := repo.LoadLastDirections(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load last directions, starting empty")
	} else {
		for plate, dir := range dirs {
			track.SeedDirection(plate, dir)
		}
	}

	if counters, err := repo.LoadCounters(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to load counters, starting at zero")
	} else {
		track.SeedCounters(counters)
	}
}

func serveHTTP(cfg *config.Config, repo *repository.ANPRRepository, log zerolog.Logger) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.AllowedOrigins,
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	reports := service.NewReportService(repo, log)
	handler := gatehttp.NewHandler(reports, log)
	handler.Register(r, gatehttp.JWTAuth(cfg.Auth.JWTSecret))

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("reporting API listening")
	if err := http.ListenAndServe(cfg.HTTP.Addr, r); err != nil {
		log.Error().Err(err).Msg("reporting API stopped")
	}
}

// noop persistence used when the database is unavailable; the pipeline keeps
// recognizing and tracking in memory.
type noopStore struct{}

func (noopStore) BackfillRegion(context.Context, string, anpr.Region) (int64, error) {
	return 0, nil
}

type noopLedger struct{}

func (noopLedger) InsertDetection(context.Context, *anpr.Detection) error { return nil }
func (noopLedger) UpsertVehicle(context.Context, *anpr.Detection) error   { return nil }
