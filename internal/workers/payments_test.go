package workers

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dairychain-dev/dairychain/internal/models"
	"github.com/dairychain-dev/dairychain/internal/tasks"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

// deadClient never reaches Redis; enqueue failures are tolerated by the
// handler, which is exactly what these tests rely on
func deadClient() *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:1"})
}

func TestHandleGenerateMonthlyPayments_AggregatesCollections(t *testing.T) {
	db := testDB(t)

	farmer := &models.Farmer{Name: "Mary Njeri", Phone: "+254700000001",
		NationalID: "12345678", KYCStatus: models.KYCApproved}
	require.NoError(t, db.Create(farmer).Error)

	require.NoError(t, db.Create(&models.DeploymentConfig{
		JWTSecret:           "test-secret",
		DefaultRatePerLiter: 0.45,
	}).Error)

	for _, c := range []models.Collection{
		{FarmerID: farmer.ID, StaffID: "staff-1", Date: "2026-07-03", Liters: 20,
			Temperature: 4, FatContent: 3.8, ProteinContent: 3.4,
			QualityGrade: models.GradeA, PricePerLiter: 0.45, TotalAmount: 9},
		{FarmerID: farmer.ID, StaffID: "staff-1", Date: "2026-07-18", Liters: 10,
			Temperature: 9, FatContent: 3.1, ProteinContent: 2.9,
			QualityGrade: models.GradeB, PricePerLiter: 0.3825, TotalAmount: 3.825},
		// Outside the period, must not count
		{FarmerID: farmer.ID, StaffID: "staff-1", Date: "2026-08-01", Liters: 50,
			Temperature: 4, FatContent: 3.8, ProteinContent: 3.4,
			QualityGrade: models.GradeA, PricePerLiter: 0.45, TotalAmount: 22.5},
	} {
		collection := c
		require.NoError(t, db.Create(&collection).Error)
	}

	task, err := tasks.NewGenerateMonthlyPaymentsTask("2026-07")
	require.NoError(t, err)

	client := deadClient()
	defer client.Close()

	require.NoError(t, HandleGenerateMonthlyPayments(context.Background(), task, client, db, zerolog.Nop()))

	var payments []models.Payment
	require.NoError(t, db.Find(&payments).Error)
	require.Len(t, payments, 1)

	payout := payments[0]
	assert.Equal(t, farmer.ID, payout.FarmerID)
	assert.Equal(t, "2026-07", payout.PeriodMonth)
	assert.InDelta(t, 30, payout.TotalLiters, 0.001)
	assert.InDelta(t, 12.825, payout.TotalAmount, 0.001)
	assert.Equal(t, models.PaymentPending, payout.Status)
}

func TestHandleGenerateMonthlyPayments_SkipsExistingPayouts(t *testing.T) {
	db := testDB(t)

	farmer := &models.Farmer{Name: "John Otieno", Phone: "+254700000002",
		NationalID: "87654321", KYCStatus: models.KYCApproved}
	require.NoError(t, db.Create(farmer).Error)

	require.NoError(t, db.Create(&models.DeploymentConfig{
		JWTSecret:           "test-secret",
		DefaultRatePerLiter: 0.45,
	}).Error)

	require.NoError(t, db.Create(&models.Collection{
		FarmerID: farmer.ID, StaffID: "staff-1", Date: "2026-07-10", Liters: 15,
		Temperature: 4, FatContent: 3.8, ProteinContent: 3.4,
		QualityGrade: models.GradeA, PricePerLiter: 0.45, TotalAmount: 6.75,
	}).Error)

	task, err := tasks.NewGenerateMonthlyPaymentsTask("2026-07")
	require.NoError(t, err)

	client := deadClient()
	defer client.Close()

	require.NoError(t, HandleGenerateMonthlyPayments(context.Background(), task, client, db, zerolog.Nop()))
	// Re-running the same period must not duplicate the payout
	require.NoError(t, HandleGenerateMonthlyPayments(context.Background(), task, client, db, zerolog.Nop()))

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
