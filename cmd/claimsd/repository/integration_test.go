package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbox/claimtrack/cmd/claimsd/repository"
	"github.com/hbox/claimtrack/common/config"
	"github.com/hbox/claimtrack/common/db"
	"github.com/hbox/claimtrack/common/logger"
	"github.com/hbox/claimtrack/common/models"
)

const (
	testPort     = 15433
	testDB       = "claimtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var pg *embeddedpostgres.EmbeddedPostgres

func TestMain(m *testing.M) {
	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB connects to the embedded instance and rebuilds the schema
func setupDB(t *testing.T, withChangeLog bool) *db.DB {
	t.Helper()
	ctx := context.Background()

	log := logger.New("error", "json")
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:        "localhost",
			Port:        testPort,
			Database:    testDB,
			User:        testUser,
			Password:    testPassword,
			MaxConns:    5,
			MinConns:    1,
			MaxIdleTime: 30 * time.Minute,
			MaxLifetime: time.Hour,
		},
	}

	database, err := db.New(ctx, cfg, log)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	_, err = database.Exec(ctx, "DROP TABLE IF EXISTS claim_change_log")
	require.NoError(t, err)
	_, err = database.Exec(ctx, "DROP TABLE IF EXISTS claims")
	require.NoError(t, err)

	require.NoError(t, repository.CreateSchema(ctx, database, withChangeLog))
	return database
}

// insertClaim seeds one claim row and returns its id
func insertClaim(t *testing.T, database *db.DB, patientID, cptID int, serviceEnd *string, chargeAmt float64) int {
	t.Helper()
	var id int
	err := database.QueryRow(context.Background(), `
		INSERT INTO claims (patient_id, cpt_id, cpt_code, first_name, last_name, service_end, charge_amt, claim_status)
		VALUES ($1, $2, '99213', 'Mary', 'Major', $3, $4, 'PENDING')
		RETURNING id`,
		patientID, cptID, serviceEnd, chargeAmt,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func strPtr(s string) *string { return &s }

func TestClaimRepository_GetByID(t *testing.T) {
	database := setupDB(t, true)
	repo := repository.NewClaimRepository(database)
	ctx := context.Background()

	id := insertClaim(t, database, 7, 3, strPtr("2024-03-15"), 100)

	claim, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, 7, claim.PatientID)
	require.NotNil(t, claim.ServiceEnd)
	assert.Equal(t, "2024-03-15", *claim.ServiceEnd)
	require.NotNil(t, claim.ChargeAmt)
	assert.Equal(t, 100.0, *claim.ChargeAmt)

	// Absent rows come back as (nil, nil), not an error
	missing, err := repo.GetByID(ctx, id+999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClaimRepository_ListFiltersAndOrder(t *testing.T) {
	database := setupDB(t, true)
	repo := repository.NewClaimRepository(database)
	ctx := context.Background()

	older := insertClaim(t, database, 7, 3, strPtr("2024-01-01"), 10)
	newer := insertClaim(t, database, 7, 3, strPtr("2024-06-01"), 20)
	noDate := insertClaim(t, database, 7, 4, nil, 30)
	otherPatient := insertClaim(t, database, 8, 3, strPtr("2024-06-01"), 40)

	all, err := repo.List(ctx, models.ClaimFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Newest service_end first, NULLs last; tie order between the two
	// 2024-06-01 rows is unspecified
	assert.ElementsMatch(t, []int{newer, otherPatient}, []int{all[0].ID, all[1].ID})
	assert.Equal(t, older, all[2].ID)
	assert.Equal(t, noDate, all[3].ID)

	pid := 7
	mine, err := repo.List(ctx, models.ClaimFilter{PatientID: &pid})
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	cpt := 4
	byCpt, err := repo.List(ctx, models.ClaimFilter{CptID: &cpt})
	require.NoError(t, err)
	require.Len(t, byCpt, 1)
	assert.Equal(t, noDate, byCpt[0].ID)

	byDate, err := repo.List(ctx, models.ClaimFilter{ServiceEnd: "2024-06-01"})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)
}

func TestClaimRepository_ListCapsAtTen(t *testing.T) {
	database := setupDB(t, true)
	repo := repository.NewClaimRepository(database)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		insertClaim(t, database, 7, 3, strPtr(fmt.Sprintf("2024-01-%02d", i+1)), float64(i))
	}

	claims, err := repo.List(ctx, models.ClaimFilter{})
	require.NoError(t, err)
	assert.Len(t, claims, 10)
}

func TestClaimRepository_Update(t *testing.T) {
	database := setupDB(t, true)
	repo := repository.NewClaimRepository(database)
	ctx := context.Background()

	id := insertClaim(t, database, 7, 3, strPtr("2024-03-15"), 100)

	updates, err := models.FilterEditable(map[string]any{
		"charge_amt":   150.0,
		"claim_status": "PAID",
		"prim_post_dt": "2024-04-01",
		"sec_cmt":      nil,
	})
	require.NoError(t, err)

	claim, err := repo.Update(ctx, id, updates)
	require.NoError(t, err)
	require.NotNil(t, claim)
	assert.Equal(t, 150.0, *claim.ChargeAmt)
	assert.Equal(t, "PAID", *claim.ClaimStatus)
	assert.Equal(t, "2024-04-01", *claim.PrimPostDt)
	assert.Nil(t, claim.SecCmt)

	// Read-only columns are untouched
	assert.Equal(t, 7, claim.PatientID)
	assert.Equal(t, "Mary", *claim.FirstName)

	// Updating a missing row reports (nil, nil)
	gone, err := repo.Update(ctx, id+999, updates)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestChangeLogRepository_InsertAndListByClaim(t *testing.T) {
	database := setupDB(t, true)
	logs := repository.NewChangeLogRepository(database)
	ctx := context.Background()

	id := insertClaim(t, database, 7, 3, strPtr("2024-03-15"), 100)

	batchTime := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	cpt := 3
	entries := []models.ChangeLogEntry{
		{ClaimID: id, UserID: 2, Username: "jdoe", CptID: &cpt, Timestamp: batchTime,
			FieldName: "charge_amt", OldValue: strPtr("100"), NewValue: strPtr("150"), Action: models.ActionUpdated},
		{ClaimID: id, UserID: 2, Username: "jdoe", CptID: &cpt, Timestamp: batchTime,
			FieldName: "claim_status", OldValue: strPtr("PENDING"), NewValue: strPtr("PAID"), Action: models.ActionUpdated},
	}
	require.NoError(t, logs.InsertBatch(ctx, entries))

	got, err := logs.ListByClaim(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Timestamp.Equal(got[1].Timestamp), "batch rows share one timestamp")
	// Same timestamp: id DESC breaks the tie, so the later insert comes first
	assert.Equal(t, "claim_status", got[0].FieldName)
	assert.Equal(t, "charge_amt", got[1].FieldName)
	assert.Equal(t, "150", *got[1].NewValue)
}

func TestChangeLogRepository_ListAll(t *testing.T) {
	database := setupDB(t, true)
	logs := repository.NewChangeLogRepository(database)
	ctx := context.Background()

	id := insertClaim(t, database, 7, 3, strPtr("2024-03-15"), 100)
	cpt := 3
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	var entries []models.ChangeLogEntry
	for i := 0; i < 25; i++ {
		userID := 2
		if i%2 == 1 {
			userID = 3
		}
		entries = append(entries, models.ChangeLogEntry{
			ClaimID: id, UserID: userID, Username: "jdoe", CptID: &cpt,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			FieldName: "charge_amt", OldValue: strPtr("1"), NewValue: strPtr("2"),
			Action: models.ActionUpdated,
		})
	}
	require.NoError(t, logs.InsertBatch(ctx, entries))

	page, total, err := logs.ListAll(ctx, models.HistoryFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, page, 20)
	// Newest first, with display columns joined from claims
	assert.True(t, page[0].Timestamp.After(page[19].Timestamp))
	require.NotNil(t, page[0].CptCode)
	assert.Equal(t, "99213", *page[0].CptCode)
	assert.Equal(t, "Mary", *page[0].FirstName)

	rest, total, err := logs.ListAll(ctx, models.HistoryFilter{}, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, rest, 5)

	uid := 3
	filtered, total, err := logs.ListAll(ctx, models.HistoryFilter{UserID: &uid}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, filtered, 12)

	dated, total, err := logs.ListAll(ctx, models.HistoryFilter{
		StartDate: "2026-03-15", EndDate: "2026-03-15",
	}, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, dated, 25)
}

func TestChangeLog_MissingTable(t *testing.T) {
	database := setupDB(t, false)
	logs := repository.NewChangeLogRepository(database)
	ctx := context.Background()

	exists, err := repository.ChangeLogTableExists(ctx, database)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = logs.ListByClaim(ctx, 1)
	require.Error(t, err)
	assert.True(t, repository.IsUndefinedTable(err))

	_, _, err = logs.ListAll(ctx, models.HistoryFilter{}, 20, 0)
	require.Error(t, err)
	assert.True(t, repository.IsUndefinedTable(err))

	err = logs.InsertBatch(ctx, []models.ChangeLogEntry{{
		ClaimID: 1, UserID: 1, Username: "System",
		Timestamp: time.Now(), FieldName: "charge_amt", Action: models.ActionUpdated,
	}})
	require.Error(t, err)
	assert.True(t, repository.IsUndefinedTable(err))

	// The claims table itself still probes healthy
	claimsRepo := repository.NewClaimRepository(database)
	claim, err := claimsRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, claim)
}
