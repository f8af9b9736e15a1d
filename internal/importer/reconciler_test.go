package importer

import (
	"io"
	"strings"
	"testing"

	"icomag/internal/bankcsv"
	"icomag/internal/logger"
	"icomag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const statementA = `Cuenta: 0108-1234-56-7890123456;;;;
Fecha;Referencia;Descripcion;Monto;Serial
01/03/2024;101;TRANSFERENCIA RECIBIDA APTO 1A;1,500.00;5001
02/03/2024;102;NOTA DE DEBITO COMISION;25.50;5002
05/03/2024;103;DEPOSITO EFECTIVO APTO 2B;300.00;5003
`

func newTestReconciler(t *testing.T) *Reconciler {
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
		&models.TransactionBatch{}, &models.Transaction{}, &models.TransactionTag{},
	))
	return NewReconciler(db, logger.NewWithWriter(io.Discard))
}

func TestImportBatchStoresAllRows(t *testing.T) {
	r := newTestReconciler(t)

	result, err := r.ImportBatch(strings.NewReader(statementA), "marzo.csv", "stored-1.csv", Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.New)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, "0108-1234-56-7890123456", result.AccountNumber)

	var batch models.TransactionBatch
	require.NoError(t, r.DB.First(&batch, result.BatchID).Error)
	assert.Equal(t, 3, batch.TotalCount)
	assert.Equal(t, 3, batch.NewCount)
	assert.Equal(t, 0, batch.DuplicateCount)

	var count int64
	require.NoError(t, r.DB.Model(&models.Transaction{}).
		Where("batch_id = ?", batch.ID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestReimportIsIdempotent(t *testing.T) {
	r := newTestReconciler(t)

	first, err := r.ImportBatch(strings.NewReader(statementA), "marzo.csv", "s1.csv", Options{})
	require.NoError(t, err)

	var before []models.Transaction
	require.NoError(t, r.DB.Where("batch_id = ?", first.BatchID).Order("id ASC").Find(&before).Error)

	second, err := r.ImportBatch(strings.NewReader(statementA), "marzo.csv", "s2.csv", Options{})
	require.NoError(t, err)

	assert.Equal(t, second.Total, second.Duplicates)
	assert.Equal(t, 0, second.New)

	// previously stored rows untouched
	var after []models.Transaction
	require.NoError(t, r.DB.Where("batch_id = ?", first.BatchID).Order("id ASC").Find(&after).Error)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Description, after[i].Description)
		assert.Equal(t, before[i].OwnerID, after[i].OwnerID)
		assert.False(t, after[i].IsDuplicate)
	}

	// new rows all flagged duplicate
	var dupCount int64
	require.NoError(t, r.DB.Model(&models.Transaction{}).
		Where("batch_id = ? AND is_duplicate = ?", second.BatchID, true).Count(&dupCount).Error)
	assert.Equal(t, int64(3), dupCount)
}

func TestReimportCarriesStaffEdits(t *testing.T) {
	r := newTestReconciler(t)

	owner := models.Owner{Name: "Ana Prieto", ApartmentID: "1A", IsActive: true}
	require.NoError(t, r.DB.Create(&owner).Error)

	_, err := r.ImportBatch(strings.NewReader(statementA), "marzo.csv", "s1.csv", Options{})
	require.NoError(t, err)

	// staff edits the first imported row
	var edited models.Transaction
	require.NoError(t, r.DB.First(&edited, "serial = ?", "5001").Error)
	edited.Description = "Rent March, apartment 1A"
	edited.OwnerID = &owner.ID
	require.NoError(t, r.DB.Save(&edited).Error)

	second, err := r.ImportBatch(strings.NewReader(statementA), "marzo.csv", "s2.csv", Options{})
	require.NoError(t, err)

	var dup models.Transaction
	require.NoError(t, r.DB.First(&dup,
		"serial = ? AND batch_id = ?", "5001", second.BatchID).Error)
	assert.True(t, dup.IsDuplicate)
	assert.Equal(t, "Rent March, apartment 1A", dup.Description)
	require.NotNil(t, dup.OwnerID)
	assert.Equal(t, owner.ID, *dup.OwnerID)
	// the bank description stays as imported
	assert.Equal(t, "TRANSFERENCIA RECIBIDA APTO 1A", dup.BankDescription)
}

func TestImportAttributesOwnerAndTags(t *testing.T) {
	r := newTestReconciler(t)

	owner := models.Owner{Name: "Ana Prieto", ApartmentID: "1A", IsActive: true}
	require.NoError(t, r.DB.Create(&owner).Error)
	require.NoError(t, r.DB.Create(&models.OwnerPattern{
		OwnerID: owner.ID, Pattern: "APTO 1A", IsActive: true,
	}).Error)

	tag := models.Tag{Name: "deposits"}
	require.NoError(t, r.DB.Create(&tag).Error)
	require.NoError(t, r.DB.Create(&models.TagPattern{
		TagID: tag.ID, Pattern: "DEPOSITO", IsActive: true,
	}).Error)

	result, err := r.ImportBatch(strings.NewReader(statementA), "marzo.csv", "s1.csv",
		Options{UsePatternMatching: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.New)

	var attributed models.Transaction
	require.NoError(t, r.DB.First(&attributed, "serial = ?", "5001").Error)
	require.NotNil(t, attributed.OwnerID)
	assert.Equal(t, owner.ID, *attributed.OwnerID)

	var tagged models.Transaction
	require.NoError(t, r.DB.First(&tagged, "serial = ?", "5003").Error)
	var links int64
	require.NoError(t, r.DB.Model(&models.TransactionTag{}).
		Where("transaction_id = ? AND tag_id = ?", tagged.ID, tag.ID).
		Count(&links).Error)
	assert.Equal(t, int64(1), links)
}

func TestParserErrorLeavesNoSideEffects(t *testing.T) {
	r := newTestReconciler(t)

	_, err := r.ImportBatch(strings.NewReader("not a statement\n"), "junk.txt", "s1.csv", Options{})
	require.ErrorIs(t, err, bankcsv.ErrUnrecognizedFormat)

	var batches, txns int64
	require.NoError(t, r.DB.Model(&models.TransactionBatch{}).Count(&batches).Error)
	require.NoError(t, r.DB.Model(&models.Transaction{}).Count(&txns).Error)
	assert.Equal(t, int64(0), batches)
	assert.Equal(t, int64(0), txns)
}

func TestDeleteBatchCascades(t *testing.T) {
	r := newTestReconciler(t)

	result, err := r.ImportBatch(strings.NewReader(statementA), "marzo.csv", "s1.csv", Options{})
	require.NoError(t, err)

	require.NoError(t, r.DeleteBatch(result.BatchID))

	var batches, txns int64
	require.NoError(t, r.DB.Model(&models.TransactionBatch{}).Count(&batches).Error)
	require.NoError(t, r.DB.Model(&models.Transaction{}).Count(&txns).Error)
	assert.Equal(t, int64(0), batches)
	assert.Equal(t, int64(0), txns)
}
