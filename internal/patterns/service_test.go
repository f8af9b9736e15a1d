package patterns

import (
	"io"
	"testing"

	"icomag/internal/logger"
	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Owner{}, &models.OwnerPattern{},
		&models.Tag{}, &models.TagPattern{},
		&models.Transaction{}, &models.TransactionTag{},
	))
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestDB(t), logger.NewWithWriter(io.Discard), 2)
}

func TestCreateOwnerPatternRejectsInvalidRegex(t *testing.T) {
	svc := newTestService(t)

	owner := models.Owner{Name: "Ana Prieto", ApartmentID: "1A", IsActive: true}
	require.NoError(t, svc.DB.Create(&owner).Error)

	_, _, err := svc.CreateOwnerPattern(CreateOwnerPatternInput{
		OwnerID: owner.ID,
		Pattern: "([unclosed",
	})
	require.Error(t, err)

	var vErr *util.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// nothing persisted
	var count int64
	require.NoError(t, svc.DB.Model(&models.OwnerPattern{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRetroactiveApplyOnlyUnassigned(t *testing.T) {
	svc := newTestService(t)

	owner := models.Owner{Name: "Ana Prieto", ApartmentID: "1A", IsActive: true}
	other := models.Owner{Name: "Luis Mena", ApartmentID: "2B", IsActive: true}
	require.NoError(t, svc.DB.Create(&owner).Error)
	require.NoError(t, svc.DB.Create(&other).Error)

	mk := func(desc string, ownerID *uint) models.Transaction {
		txn := models.Transaction{
			Type: models.MoneyIn, Amount: 100, Description: desc,
			BankDescription: desc, OwnerID: ownerID,
		}
		require.NoError(t, svc.DB.Create(&txn).Error)
		return txn
	}

	unowned1 := mk("RENT APTO 1A MARCH", nil)
	unowned2 := mk("RENT APTO 1A APRIL", nil)
	noise := mk("GROCERIES", nil)
	owned := mk("RENT APTO 1A FEBRUARY", &other.ID)

	_, applied, err := svc.CreateOwnerPattern(CreateOwnerPatternInput{
		OwnerID:         owner.ID,
		Pattern:         "RENT",
		ApplyToExisting: true,
		OnlyUnassigned:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), applied)

	var got models.Transaction
	require.NoError(t, svc.DB.First(&got, unowned1.ID).Error)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner.ID, *got.OwnerID)

	got = models.Transaction{}
	require.NoError(t, svc.DB.First(&got, unowned2.ID).Error)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner.ID, *got.OwnerID)

	got = models.Transaction{}
	require.NoError(t, svc.DB.First(&got, noise.ID).Error)
	assert.Nil(t, got.OwnerID)

	// previously-owned matching transaction untouched
	got = models.Transaction{}
	require.NoError(t, svc.DB.First(&got, owned.ID).Error)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, other.ID, *got.OwnerID)
}

func TestRetroactiveApplyTagPattern(t *testing.T) {
	svc := newTestService(t)

	tag := models.Tag{Name: "gas"}
	require.NoError(t, svc.DB.Create(&tag).Error)

	for _, desc := range []string{"PAGO GAS MARZO", "PAGO GAS ABRIL", "CONDOMINIO"} {
		txn := models.Transaction{
			Type: models.MoneyIn, Amount: 50,
			Description: desc, BankDescription: desc,
		}
		require.NoError(t, svc.DB.Create(&txn).Error)
	}

	_, applied, err := svc.CreateTagPattern(CreateTagPatternInput{
		TagID:           tag.ID,
		Pattern:         "GAS",
		ApplyToExisting: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), applied)

	var count int64
	require.NoError(t, svc.DB.Model(&models.TransactionTag{}).
		Where("tag_id = ?", tag.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// applying the same pattern again tags nothing new
	_, applied, err = svc.CreateTagPattern(CreateTagPatternInput{
		TagID:           tag.ID,
		Pattern:         "GAS",
		ApplyToExisting: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), applied)
}

func TestTogglePattern(t *testing.T) {
	svc := newTestService(t)

	owner := models.Owner{Name: "Ana Prieto", ApartmentID: "1A", IsActive: true}
	require.NoError(t, svc.DB.Create(&owner).Error)

	pattern, _, err := svc.CreateOwnerPattern(CreateOwnerPatternInput{
		OwnerID: owner.ID,
		Pattern: "RENT",
	})
	require.NoError(t, err)
	assert.True(t, pattern.IsActive)

	toggled, err := svc.ToggleOwnerPattern(pattern.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = svc.ToggleOwnerPattern(pattern.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}
