package patterns

import (
	"fmt"
	"regexp"

	"icomag/internal/models"
	"icomag/internal/util"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Service manages the pattern lifecycle: validated creation, optional
// retroactive application, toggling and deletion.
type Service struct {
	DB  *gorm.DB
	Log zerolog.Logger

	// ChunkSize bounds each retroactive-apply batch. Applying a new pattern
	// to existing transactions may touch an unbounded number of rows, so it
	// runs in chunks instead of one long transaction; a failure partway
	// through is logged and retryable, not fatal.
	ChunkSize int
}

func NewService(db *gorm.DB, log zerolog.Logger, chunkSize int) *Service {
	if chunkSize <= 0 {
		chunkSize = 200
	}
	return &Service{DB: db, Log: log, ChunkSize: chunkSize}
}

// CreateOwnerPatternInput carries the creation form for an owner pattern.
type CreateOwnerPatternInput struct {
	OwnerID         uint
	Pattern         string
	Description     string
	ApplyToExisting bool
	OnlyUnassigned  bool
}

// CreateOwnerPattern validates and stores a new owner pattern, then
// optionally applies it to existing transactions. Returns the number of
// transactions attributed retroactively.
func (s *Service) CreateOwnerPattern(in CreateOwnerPatternInput) (*models.OwnerPattern, int64, error) {
	re, err := compilePattern(in.Pattern)
	if err != nil {
		return nil, 0, err
	}

	var owner models.Owner
	if err := s.DB.First(&owner, in.OwnerID).Error; err != nil {
		return nil, 0, fmt.Errorf("load owner %d: %w", in.OwnerID, err)
	}

	pattern := models.OwnerPattern{
		OwnerID:     in.OwnerID,
		Pattern:     in.Pattern,
		Description: in.Description,
		IsActive:    true,
	}
	if err := s.DB.Create(&pattern).Error; err != nil {
		return nil, 0, fmt.Errorf("create owner pattern: %w", err)
	}

	var applied int64
	if in.ApplyToExisting {
		applied, err = s.applyOwnerPattern(re, in.OwnerID, in.OnlyUnassigned)
		if err != nil {
			// the pattern itself is stored; partial application is an
			// accepted, retryable inconsistency
			s.Log.Error().Err(err).Uint("pattern_id", pattern.ID).
				Int64("applied", applied).Msg("retroactive owner pattern apply interrupted")
			return &pattern, applied, err
		}
	}
	return &pattern, applied, nil
}

// CreateTagPatternInput carries the creation form for a tag pattern.
type CreateTagPatternInput struct {
	TagID           uint
	Pattern         string
	Description     string
	ApplyToExisting bool
}

// CreateTagPattern validates and stores a new tag pattern, then optionally
// tags matching existing transactions.
func (s *Service) CreateTagPattern(in CreateTagPatternInput) (*models.TagPattern, int64, error) {
	re, err := compilePattern(in.Pattern)
	if err != nil {
		return nil, 0, err
	}

	var tag models.Tag
	if err := s.DB.First(&tag, in.TagID).Error; err != nil {
		return nil, 0, fmt.Errorf("load tag %d: %w", in.TagID, err)
	}

	pattern := models.TagPattern{
		TagID:       in.TagID,
		Pattern:     in.Pattern,
		Description: in.Description,
		IsActive:    true,
	}
	if err := s.DB.Create(&pattern).Error; err != nil {
		return nil, 0, fmt.Errorf("create tag pattern: %w", err)
	}

	var applied int64
	if in.ApplyToExisting {
		applied, err = s.applyTagPattern(re, in.TagID)
		if err != nil {
			s.Log.Error().Err(err).Uint("pattern_id", pattern.ID).
				Int64("applied", applied).Msg("retroactive tag pattern apply interrupted")
			return &pattern, applied, err
		}
	}
	return &pattern, applied, nil
}

// ToggleOwnerPattern flips the active flag.
func (s *Service) ToggleOwnerPattern(id uint) (*models.OwnerPattern, error) {
	var pattern models.OwnerPattern
	if err := s.DB.First(&pattern, id).Error; err != nil {
		return nil, err
	}
	pattern.IsActive = !pattern.IsActive
	if err := s.DB.Save(&pattern).Error; err != nil {
		return nil, fmt.Errorf("toggle owner pattern: %w", err)
	}
	return &pattern, nil
}

// ToggleTagPattern flips the active flag.
func (s *Service) ToggleTagPattern(id uint) (*models.TagPattern, error) {
	var pattern models.TagPattern
	if err := s.DB.First(&pattern, id).Error; err != nil {
		return nil, err
	}
	pattern.IsActive = !pattern.IsActive
	if err := s.DB.Save(&pattern).Error; err != nil {
		return nil, fmt.Errorf("toggle tag pattern: %w", err)
	}
	return &pattern, nil
}

// DeleteOwnerPattern removes a pattern.
func (s *Service) DeleteOwnerPattern(id uint) error {
	var pattern models.OwnerPattern
	if err := s.DB.First(&pattern, id).Error; err != nil {
		return err
	}
	return s.DB.Delete(&pattern).Error
}

// DeleteTagPattern removes a pattern.
func (s *Service) DeleteTagPattern(id uint) error {
	var pattern models.TagPattern
	if err := s.DB.First(&pattern, id).Error; err != nil {
		return err
	}
	return s.DB.Delete(&pattern).Error
}

// applyOwnerPattern walks existing transactions in bounded chunks and
// assigns the owner to those whose description matches. onlyUnassigned
// leaves previously-attributed transactions untouched.
func (s *Service) applyOwnerPattern(re *regexp.Regexp, ownerID uint, onlyUnassigned bool) (int64, error) {
	var applied int64
	var lastID uint

	for {
		q := s.DB.Where("id > ?", lastID).Order("id ASC").Limit(s.ChunkSize)
		if onlyUnassigned {
			q = q.Where("owner_id IS NULL")
		}

		var chunk []models.Transaction
		if err := q.Find(&chunk).Error; err != nil {
			return applied, fmt.Errorf("load transaction chunk: %w", err)
		}
		if len(chunk) == 0 {
			return applied, nil
		}

		for i := range chunk {
			txn := &chunk[i]
			lastID = txn.ID
			if !re.MatchString(txn.Description) {
				continue
			}
			if err := s.DB.Model(txn).Update("owner_id", ownerID).Error; err != nil {
				return applied, fmt.Errorf("assign owner to transaction %d: %w", txn.ID, err)
			}
			applied++
		}
	}
}

// applyTagPattern tags matching existing transactions, skipping ones that
// already carry the tag.
func (s *Service) applyTagPattern(re *regexp.Regexp, tagID uint) (int64, error) {
	var applied int64
	var lastID uint

	for {
		var chunk []models.Transaction
		if err := s.DB.Where("id > ?", lastID).Order("id ASC").
			Limit(s.ChunkSize).Find(&chunk).Error; err != nil {
			return applied, fmt.Errorf("load transaction chunk: %w", err)
		}
		if len(chunk) == 0 {
			return applied, nil
		}

		for i := range chunk {
			txn := &chunk[i]
			lastID = txn.ID
			if !re.MatchString(txn.Description) {
				continue
			}

			var count int64
			if err := s.DB.Model(&models.TransactionTag{}).
				Where("transaction_id = ? AND tag_id = ?", txn.ID, tagID).
				Count(&count).Error; err != nil {
				return applied, fmt.Errorf("check existing tag: %w", err)
			}
			if count > 0 {
				continue
			}
			link := models.TransactionTag{TransactionID: txn.ID, TagID: tagID}
			if err := s.DB.Create(&link).Error; err != nil {
				return applied, fmt.Errorf("tag transaction %d: %w", txn.ID, err)
			}
			applied++
		}
	}
}

// compilePattern validates user-supplied regex text. Go's regexp is RE2
// with linear-time matching, so a stored pattern cannot blow up evaluation.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, util.Validationf("pattern is empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, util.Validationf(fmt.Sprintf("invalid regular expression: %v", err))
	}
	return re, nil
}
