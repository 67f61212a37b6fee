package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/plus3/ecsmgr/ecs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	log.Info("starting ECS stress test",
		zap.Int("entities", cfg.Entities),
		zap.Int("systems", cfg.Systems),
		zap.Float64("churn", cfg.Churn),
		zap.Int64("seed", cfg.Seed))

	m := ecs.NewManager(ecs.WithLogger(log.Named("ecs")))
	world, err := NewWorld(m, cfg)
	if err != nil {
		return fmt.Errorf("populate world: %w", err)
	}
	log.Info("population complete", zap.Int("entities", m.EntityCount()))

	report := &Report{
		Duration:   cfg.Duration,
		Entities:   cfg.Entities,
		Components: len(componentTypes),
		Systems:    cfg.Systems,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info("running simulation", zap.Duration("duration", cfg.Duration))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var tick <-chan time.Time
	if cfg.Tick > 0 {
		ticker := time.NewTicker(cfg.Tick)
		defer ticker.Stop()
		tick = ticker.C
	}

	startTime := time.Now()
	var totalUpdates int64

Loop:
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				break Loop
			case <-tick:
			}
		} else if ctx.Err() != nil {
			break Loop
		}

		updateStart := time.Now()
		if err := m.UpdateSystems(); err != nil {
			report.FlushErrors++
			log.Debug("command flush failed", zap.Error(err))
		}
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		totalUpdates++
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	report.ChurnOps = world.churn.ops
	report.FinalEntities = m.EntityCount()
	report.Manager = m.Stats()
	report.Violations, report.Mismatches = world.Verify()
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Info("simulation finished",
		zap.Int64("updates", totalUpdates),
		zap.Int("violations", report.Violations),
		zap.Int("mismatches", len(report.Mismatches)))

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")

	if report.Violations > 0 || len(report.Mismatches) > 0 {
		return fmt.Errorf("consistency check failed: %d ordering violations, %d mismatches",
			report.Violations, len(report.Mismatches))
	}
	return nil
}

// parseConfig loads the optional config file and applies the flags that were
// set explicitly on top of it.
func parseConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("ecs-stress", flag.ContinueOnError)
	def := defaults()
	path := fs.String("config", "", "Path to a TOML or YAML config file.")
	duration := fs.Duration("duration", def.Duration, "The total duration the test should run for.")
	tick := fs.Duration("tick", def.Tick, "Interval between ticks, 0 runs them back to back.")
	entities := fs.Int("entities", def.Entities, "The initial number of entities to create.")
	systems := fs.Int("systems", def.Systems, "The number of generated systems.")
	churn := fs.Float64("churn", def.Churn, "Fraction of entities structurally changed per tick.")
	seed := fs.Int64("seed", def.Seed, "Random seed for world generation.")
	prof := fs.String("profile", def.Profile, "Profile mode: cpu, mem or empty.")
	level := fs.String("log-level", def.Logging.Level, "Log level.")
	format := fs.String("log-format", def.Logging.Format, "Log format: json or console.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*path)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Duration = *duration
		case "tick":
			cfg.Tick = *tick
		case "entities":
			cfg.Entities = *entities
		case "systems":
			cfg.Systems = *systems
		case "churn":
			cfg.Churn = *churn
		case "seed":
			cfg.Seed = *seed
		case "profile":
			cfg.Profile = *prof
		case "log-level":
			cfg.Logging.Level = *level
		case "log-format":
			cfg.Logging.Format = *format
		}
	})
	return cfg, cfg.validate()
}

func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
