package ledger

import (
	"testing"
	"time"

	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedTag(t *testing.T, db *gorm.DB, name string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: name}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

func tagTxn(t *testing.T, db *gorm.DB, txnID, tagID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.TransactionTag{
		TransactionID: txnID, TagID: tagID,
	}).Error)
}

func TestSetTagParentRejectsSelf(t *testing.T) {
	db := newTestDB(t)
	tag := seedTag(t, db, "gas")

	err := SetTagParent(db, tag.ID, &tag.ID)
	require.Error(t, err)
	var vErr *util.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestSetTagParentRejectsCycle(t *testing.T) {
	db := newTestDB(t)
	a := seedTag(t, db, "a")
	b := seedTag(t, db, "b")
	c := seedTag(t, db, "c")

	require.NoError(t, SetTagParent(db, b.ID, &a.ID))
	require.NoError(t, SetTagParent(db, c.ID, &b.ID))

	// a -> c would close the loop a -> c -> b -> a
	err := SetTagParent(db, a.ID, &c.ID)
	require.Error(t, err)
	var vErr *util.ValidationError
	assert.ErrorAs(t, err, &vErr)

	// the existing chain is untouched
	var reloaded models.Tag
	require.NoError(t, db.First(&reloaded, a.ID).Error)
	assert.Nil(t, reloaded.ParentID)
}

func TestSetTagParentClears(t *testing.T) {
	db := newTestDB(t)
	parent := seedTag(t, db, "expenses")
	child := seedTag(t, db, "gas")

	require.NoError(t, SetTagParent(db, child.ID, &parent.ID))
	require.NoError(t, SetTagParent(db, child.ID, nil))

	var reloaded models.Tag
	require.NoError(t, db.First(&reloaded, child.ID).Error)
	assert.Nil(t, reloaded.ParentID)
}

func TestTransactionsByTagExpandsOneHop(t *testing.T) {
	db := newTestDB(t)
	parent := seedTag(t, db, "expenses")
	child := seedTag(t, db, "gas")
	grandchild := seedTag(t, db, "gas-march")
	unrelated := seedTag(t, db, "maintenance")

	require.NoError(t, SetTagParent(db, child.ID, &parent.ID))
	require.NoError(t, SetTagParent(db, grandchild.ID, &child.ID))

	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	onParent := seedTxn(t, db, models.MoneyOut, 100, date, false)
	onChild := seedTxn(t, db, models.MoneyOut, 200, date.AddDate(0, 0, 1), false)
	onGrandchild := seedTxn(t, db, models.MoneyOut, 300, date, false)
	onUnrelated := seedTxn(t, db, models.MoneyOut, 400, date, false)
	onBoth := seedTxn(t, db, models.MoneyOut, 500, date.AddDate(0, 0, 2), false)

	tagTxn(t, db, onParent.ID, parent.ID)
	tagTxn(t, db, onChild.ID, child.ID)
	tagTxn(t, db, onGrandchild.ID, grandchild.ID)
	tagTxn(t, db, onUnrelated.ID, unrelated.ID)
	tagTxn(t, db, onBoth.ID, parent.ID)
	tagTxn(t, db, onBoth.ID, child.ID)

	txns, err := TransactionsByTag(db, parent.ID)
	require.NoError(t, err)

	// parent plus direct children only; grandchild and unrelated excluded,
	// doubly tagged row returned once
	ids := make([]uint, 0, len(txns))
	for _, txn := range txns {
		ids = append(ids, txn.ID)
	}
	assert.ElementsMatch(t, []uint{onParent.ID, onChild.ID, onBoth.ID}, ids)
}

func TestTransactionsByTagUnknownTag(t *testing.T) {
	db := newTestDB(t)

	_, err := TransactionsByTag(db, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
