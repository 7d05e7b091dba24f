package storage

import (
	"database/sql"
	"log"

	_ "github.com/lib/pq"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

type Storage struct {
	DB               *sql.DB
	Institutions     sqlconfig.IInstitutionTable
	Accounts         sqlconfig.IAccountTable
	Transactions     sqlconfig.ITransactionTable
	Categories       sqlconfig.ICategoryTable
	Splits           sqlconfig.ISplitTable
	IngestFiles      sqlconfig.IIngestFileTable
	Enrollments      sqlconfig.IEnrollmentTable
	ProviderAccounts sqlconfig.IProviderAccountTable
	SyncJobs         sqlconfig.ISyncJobTable
	SyncCursors      sqlconfig.ISyncCursorTable
	Budgets          sqlconfig.IBudgetTable
}

func NewStorage(env *config.Config) *Storage {
	connStr := "postgres://" + env.PostgresUsername + ":" +
		env.PostgresPassword + "@" + env.PostgresAddress + ":" +
		env.PostgresPort + "/" + env.PostgresDB + "?sslmode=disable"

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}

	return &Storage{
		DB:               db,
		Institutions:     sqlconfig.NewInstitutionsTable(db),
		Accounts:         sqlconfig.NewAccountsTable(db),
		Transactions:     sqlconfig.NewTransactionsTable(db),
		Categories:       sqlconfig.NewCategoriesTable(db),
		Splits:           sqlconfig.NewSplitsTable(db),
		IngestFiles:      sqlconfig.NewIngestFilesTable(db),
		Enrollments:      sqlconfig.NewEnrollmentsTable(db),
		ProviderAccounts: sqlconfig.NewProviderAccountsTable(db),
		SyncJobs:         sqlconfig.NewSyncJobsTable(db),
		SyncCursors:      sqlconfig.NewSyncCursorsTable(db),
		Budgets:          sqlconfig.NewBudgetsTable(db),
	}
}
