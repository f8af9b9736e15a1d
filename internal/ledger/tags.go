package ledger

import (
	"fmt"

	"icomag/internal/models"
	"icomag/internal/util"

	"gorm.io/gorm"
)

// SetTagParent assigns (or clears, with nil) a tag's parent. The schema does
// not prevent cycles, so they are rejected here: self-reference and any
// parent chain that leads back to the tag.
func SetTagParent(db *gorm.DB, tagID uint, parentID *uint) error {
	var tag models.Tag
	if err := db.First(&tag, tagID).Error; err != nil {
		return err
	}

	if parentID != nil {
		if *parentID == tagID {
			return util.Validationf("a tag cannot be its own parent")
		}
		var parent models.Tag
		if err := db.First(&parent, *parentID).Error; err != nil {
			return err
		}
		// walk up from the proposed parent; hitting tagID means a cycle
		cursor := parent
		for cursor.ParentID != nil {
			if *cursor.ParentID == tagID {
				return util.Validationf("tag parent would create a cycle")
			}
			if err := db.First(&cursor, *cursor.ParentID).Error; err != nil {
				return err
			}
		}
	}

	return db.Model(&tag).Update("parent_id", parentID).Error
}

// TransactionsByTag returns transactions carrying the tag or any of its
// direct children. One-hop expansion only, matching how staff use the
// hierarchy; no transitive closure.
func TransactionsByTag(db *gorm.DB, tagID uint) ([]models.Transaction, error) {
	var tag models.Tag
	if err := db.First(&tag, tagID).Error; err != nil {
		return nil, err
	}

	tagIDs := []uint{tagID}
	var children []models.Tag
	if err := db.Where("parent_id = ?", tagID).Find(&children).Error; err != nil {
		return nil, fmt.Errorf("load child tags: %w", err)
	}
	for _, child := range children {
		tagIDs = append(tagIDs, child.ID)
	}

	var txns []models.Transaction
	err := db.
		Joins("JOIN transaction_tags ON transaction_tags.transaction_id = transactions.id").
		Where("transaction_tags.tag_id IN ?", tagIDs).
		Distinct("transactions.*").
		Order("transactions.date DESC, transactions.id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("load transactions by tag: %w", err)
	}
	return txns, nil
}
