package container

import (
	"context"
	"log"

	"crmqc/adapters/excel"
	"crmqc/adapters/random"
	"crmqc/adapters/reference"
	"crmqc/app"
	"crmqc/domain/qc"
	"crmqc/internal"
	"crmqc/internal/config"
	"crmqc/internal/errors"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	Sampler    *random.UniformSampler
	Reference  qc.ReferenceTable
	Controller *app.SessionController
}

// New wires a controller from cfg. The reference table is loaded from
// cfg.Reference.File when set; otherwise sessions fall back to the grid's
// in-file reference row.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger := internal.NewLogger(cfg.LogLevel)

	ref, err := loadReference(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sampler := random.NewUniformSampler(cfg.Random.Seed)
	logger.Info("[Container] Sampler seed %d", sampler.Seed())

	controller := app.NewSessionController(app.ControllerConfig{
		Layout:               cfg.Layout,
		Reference:            ref,
		AboveLimitMultiplier: cfg.Limits.AboveMultiplier,
	}, sampler, logger)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Sampler:    sampler,
		Reference:  ref,
		Controller: controller,
	}, nil
}

// ExcelConfig returns the spreadsheet settings for readers and writers
func (c *Container) ExcelConfig() excel.ExcelConfig {
	return excelConfig(c.Config)
}

func excelConfig(cfg *config.Config) excel.ExcelConfig {
	ec := excel.DefaultExcelConfig()
	if cfg.Sheet != "" {
		ec.SheetName = cfg.Sheet
	}
	return ec
}

func loadReference(ctx context.Context, cfg *config.Config) (qc.ReferenceTable, error) {
	if cfg.Reference.File == "" {
		return qc.ReferenceTable{}, nil
	}

	sheet := excel.DefaultExcelConfig()
	sheet.SheetName = cfg.Reference.Sheet
	source := reference.FromFile(cfg.Reference.File, cfg.Reference.Row, sheet)
	ref, err := source.LoadReference(ctx)
	if err != nil {
		return qc.ReferenceTable{}, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to load reference table %s", cfg.Reference.File))
	}
	if cfg.Reference.Name != "" {
		ref = qc.NewReferenceTable(cfg.Reference.Name, ref.Values())
	}
	log.Printf("[Container] Reference %q: %v", ref.Name(), ref.Elements())
	return ref, nil
}
