package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	PostgresAddress  string
	PostgresPort     string
	PostgresDB       string
	PostgresUsername string
	PostgresPassword string

	TellerBaseURL      string
	TellerCertPath     string
	TellerKeyPath      string
	TellerCAPath       string
	TellerAccessToken  string
	TellerEnrollmentID string
	TellerAuthStyle    string
	TellerEnvironment  string
	TellerUserRef      string
	WebhookSecret      string

	EncryptionKey string

	RawDir     string
	RulesPath  string
	BudgetPath string

	SinceDays        int
	ClassifyLookback int
	SyncBatchSize    int
	SyncBackoff      time.Duration
	SweepMinInterval time.Duration

	IngestSchedule   string
	SyncSchedule     string
	ClassifySchedule string

	Port string
}

func ProcessEnvironmentVariables() (*Config, error) {
	// In all cases the default behavior should be for the docker compose setup
	env := Config{
		PostgresAddress:  "localhost",
		PostgresPort:     "5433",
		PostgresDB:       "postgres",
		PostgresUsername: "postgres",
		PostgresPassword: "testpassword",

		TellerBaseURL:     "https://api.teller.io",
		TellerCAPath:      "/etc/ssl/certs/ca-certificates.crt",
		TellerAuthStyle:   "basic",
		TellerEnvironment: "sandbox",

		RawDir:     "/data/raw",
		RulesPath:  "config/rules.yaml",
		BudgetPath: "config/budgets.yaml",

		SinceDays:        30,
		ClassifyLookback: 120,
		SyncBatchSize:    50,
		SyncBackoff:      5 * time.Minute,
		SweepMinInterval: 15 * time.Minute,

		IngestSchedule:   "@every 5m",
		SyncSchedule:     "@every 2m",
		ClassifySchedule: "@every 30m",

		Port: "9446",
	}

	overrideString(&env.PostgresAddress, "POSTGRES_ADDRESS")
	overrideString(&env.PostgresPort, "POSTGRES_PORT")
	overrideString(&env.PostgresDB, "POSTGRES_DB")
	overrideString(&env.PostgresUsername, "POSTGRES_USERNAME")
	overrideString(&env.PostgresPassword, "POSTGRES_PASSWORD")

	overrideString(&env.TellerBaseURL, "TELLER_BASE_URL")
	overrideString(&env.TellerCertPath, "TELLER_CERT")
	overrideString(&env.TellerKeyPath, "TELLER_KEY")
	overrideString(&env.TellerCAPath, "TELLER_CA_PATH")
	overrideString(&env.TellerAccessToken, "TELLER_ACCESS_TOKEN")
	overrideString(&env.TellerEnrollmentID, "TELLER_ENROLLMENT_ID")
	overrideString(&env.TellerAuthStyle, "TELLER_AUTH_STYLE")
	overrideString(&env.TellerEnvironment, "TELLER_ENV")
	overrideString(&env.TellerUserRef, "USER_REF")
	overrideString(&env.WebhookSecret, "TELLER_WEBHOOK_SECRET")
	overrideString(&env.EncryptionKey, "FIN_ENC_KEY")

	overrideString(&env.RawDir, "RAW_DIR")
	overrideString(&env.RulesPath, "RULES_PATH")
	overrideString(&env.BudgetPath, "BUDGET_FILE")

	if err := overrideInt(&env.SinceDays, "TELLER_SINCE_DAYS"); err != nil {
		return nil, err
	}
	if err := overrideInt(&env.ClassifyLookback, "CLASSIFY_LOOKBACK_DAYS"); err != nil {
		return nil, err
	}
	if err := overrideInt(&env.SyncBatchSize, "SYNC_BATCH_SIZE"); err != nil {
		return nil, err
	}

	overrideString(&env.IngestSchedule, "INGEST_SCHEDULE")
	overrideString(&env.SyncSchedule, "SYNC_SCHEDULE")
	overrideString(&env.ClassifySchedule, "CLASSIFY_SCHEDULE")
	overrideString(&env.Port, "PORT")

	return &env, nil
}

// ValidateTeller checks the credentials the provider-facing stages need.
// A missing credential is fatal at startup, never mid-run.
func (c *Config) ValidateTeller() error {
	if c.TellerCertPath == "" || c.TellerKeyPath == "" {
		return errors.New("config: TELLER_CERT and TELLER_KEY are required")
	}
	if c.TellerAccessToken == "" {
		return errors.New("config: TELLER_ACCESS_TOKEN is required")
	}
	if c.TellerEnrollmentID == "" {
		return errors.New("config: TELLER_ENROLLMENT_ID is required")
	}
	if c.TellerAuthStyle != "basic" && c.TellerAuthStyle != "bearer" {
		return errors.New("config: TELLER_AUTH_STYLE must be basic or bearer")
	}
	return nil
}

func overrideString(target *string, key string) {
	value := os.Getenv(key)
	if len(value) != 0 {
		*target = value
	}
}

func overrideInt(target *int, key string) error {
	value := os.Getenv(key)
	if len(value) == 0 {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return errors.New("config: " + key + " must be an integer")
	}
	*target = parsed
	return nil
}
