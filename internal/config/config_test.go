package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProcessEnvironmentVariables_Defaults(t *testing.T) {
	env, err := ProcessEnvironmentVariables()
	assert.NoError(t, err)

	assert.Equal(t, "localhost", env.PostgresAddress)
	assert.Equal(t, "5433", env.PostgresPort)
	assert.Equal(t, "https://api.teller.io", env.TellerBaseURL)
	assert.Equal(t, "basic", env.TellerAuthStyle)
	assert.Equal(t, "sandbox", env.TellerEnvironment)
	assert.Equal(t, 30, env.SinceDays)
	assert.Equal(t, 120, env.ClassifyLookback)
	assert.Equal(t, 50, env.SyncBatchSize)
	assert.Equal(t, 5*time.Minute, env.SyncBackoff)
	assert.Equal(t, 15*time.Minute, env.SweepMinInterval)
	assert.Equal(t, "@every 5m", env.IngestSchedule)
	assert.Equal(t, "9446", env.Port)
}

func TestProcessEnvironmentVariables_Overrides(t *testing.T) {
	t.Setenv("POSTGRES_ADDRESS", "db.internal")
	t.Setenv("TELLER_SINCE_DAYS", "90")
	t.Setenv("SYNC_BATCH_SIZE", "10")
	t.Setenv("TELLER_AUTH_STYLE", "bearer")
	t.Setenv("RAW_DIR", "/mnt/statements")

	env, err := ProcessEnvironmentVariables()
	assert.NoError(t, err)
	assert.Equal(t, "db.internal", env.PostgresAddress)
	assert.Equal(t, 90, env.SinceDays)
	assert.Equal(t, 10, env.SyncBatchSize)
	assert.Equal(t, "bearer", env.TellerAuthStyle)
	assert.Equal(t, "/mnt/statements", env.RawDir)
}

func TestProcessEnvironmentVariables_BadInt(t *testing.T) {
	t.Setenv("TELLER_SINCE_DAYS", "many")

	_, err := ProcessEnvironmentVariables()
	assert.Error(t, err)
}

func TestValidateTeller(t *testing.T) {
	valid := &Config{
		TellerCertPath:     "/certs/cert.pem",
		TellerKeyPath:      "/certs/key.pem",
		TellerAccessToken:  "token",
		TellerEnrollmentID: "enr_1",
		TellerAuthStyle:    "basic",
	}
	assert.NoError(t, valid.ValidateTeller())

	missingCert := *valid
	missingCert.TellerCertPath = ""
	assert.Error(t, missingCert.ValidateTeller())

	missingToken := *valid
	missingToken.TellerAccessToken = ""
	assert.Error(t, missingToken.ValidateTeller())

	missingEnrollment := *valid
	missingEnrollment.TellerEnrollmentID = ""
	assert.Error(t, missingEnrollment.ValidateTeller())

	badStyle := *valid
	badStyle.TellerAuthStyle = "digest"
	assert.Error(t, badStyle.ValidateTeller())
}
