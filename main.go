package main

import (
	"context"
	"sync"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/api"
	"github.com/carson-networks/ledger-server/internal/budget"
	"github.com/carson-networks/ledger-server/internal/classify"
	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/ingest"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/resolve"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/syncer"
	"github.com/carson-networks/ledger-server/internal/teller"
)

func main() {
	logger := logging.SetupLogging()
	logrus.Info("ledger-server starting")

	_ = godotenv.Load()

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}

	dbStorage := storage.NewStorage(envConfig)
	resolver := resolve.NewResolver(dbStorage)
	ctx := context.Background()

	rules, err := classify.LoadRules(envConfig.RulesPath)
	if err != nil {
		logger.WithError(err).Warn("classify.LoadRules, running without rules")
		rules = nil
	}

	ingestEngine := ingest.NewEngine(dbStorage, resolver, logger, envConfig.RawDir)
	classifyEngine := classify.NewEngine(dbStorage, logger, rules, envConfig.ClassifyLookback)

	if envConfig.BudgetPath != "" {
		importer := budget.NewImporter(dbStorage, logger)
		if _, err := importer.Import(ctx, envConfig.BudgetPath); err != nil {
			logger.WithError(err).Warn("budget.Import")
		}
	}

	scheduler := cron.New()
	mustSchedule(scheduler, envConfig.IngestSchedule, func() {
		if err := ingestEngine.Run(ctx); err != nil {
			logger.WithError(err).Error("ingest.Run")
		}
	})
	mustSchedule(scheduler, envConfig.ClassifySchedule, func() {
		if _, err := classifyEngine.Run(ctx); err != nil {
			logger.WithError(err).Error("classify.Run")
		}
	})

	if err := envConfig.ValidateTeller(); err != nil {
		logger.WithError(err).Warn("Teller not configured, provider sync disabled")
	} else {
		client, err := teller.NewClient(teller.Config{
			BaseURL:      envConfig.TellerBaseURL,
			CertFile:     envConfig.TellerCertPath,
			KeyFile:      envConfig.TellerKeyPath,
			CAFile:       envConfig.TellerCAPath,
			AccessToken:  envConfig.TellerAccessToken,
			AuthStyle:    envConfig.TellerAuthStyle,
			EnrollmentID: envConfig.TellerEnrollmentID,
		})
		if err != nil {
			logrus.WithError(err).Fatal("teller.NewClient")
			return
		}

		syncEngine := syncer.NewEngine(dbStorage, client, resolver, logger,
			envConfig.SinceDays, envConfig.SyncBatchSize,
			envConfig.SyncBackoff, envConfig.SweepMinInterval)

		if err := syncEngine.Enroll(ctx, &syncer.EnrollInput{
			Provider:      "teller",
			EnrollmentID:  envConfig.TellerEnrollmentID,
			UserRef:       envConfig.TellerUserRef,
			Environment:   envConfig.TellerEnvironment,
			AccessToken:   envConfig.TellerAccessToken,
			EncryptionKey: envConfig.EncryptionKey,
		}); err != nil {
			logger.WithError(err).Error("syncer.Enroll")
		}

		mustSchedule(scheduler, envConfig.SyncSchedule, func() {
			if err := syncEngine.Run(ctx); err != nil {
				logger.WithError(err).Error("syncer.Run")
			}
		})
	}

	scheduler.Start()

	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		httpRest := api.Rest{
			Logger:        logger,
			Port:          envConfig.Port,
			Storage:       dbStorage,
			WebhookSecret: envConfig.WebhookSecret,
		}
		httpRest.Serve()
	}()

	wg.Wait()
}

func mustSchedule(scheduler *cron.Cron, spec string, job func()) {
	if _, err := scheduler.AddFunc(spec, job); err != nil {
		logrus.WithError(err).WithField("schedule", spec).Fatal("cron.AddFunc")
	}
}
