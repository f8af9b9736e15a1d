package patterns

import (
	"io"
	"testing"

	"icomag/internal/logger"
	"icomag/internal/models"
)

func ownerPat(id, ownerID uint, pattern string, active bool) models.OwnerPattern {
	return models.OwnerPattern{ID: id, OwnerID: ownerID, Pattern: pattern, IsActive: active}
}

func TestFirstMatchWinsInCreationOrder(t *testing.T) {
	log := logger.NewWithWriter(io.Discard)
	pats := CompileOwnerPatterns([]models.OwnerPattern{
		// deliberately out of order; compilation sorts by ID
		ownerPat(3, 30, "RENT", true),
		ownerPat(1, 10, "APTO 1A", true),
		ownerPat(2, 20, "APTO", true),
	}, log)

	p, ok := FirstMatch(pats, "TRANSFERENCIA APTO 1A RENT")
	if !ok {
		t.Fatal("FirstMatch() found nothing, want a match")
	}
	if p.TargetID != 10 {
		t.Errorf("FirstMatch() target = %d, want 10 (lowest pattern ID wins)", p.TargetID)
	}
}

func TestMatchReturnsAllForTags(t *testing.T) {
	log := logger.NewWithWriter(io.Discard)
	pats := CompileTagPatterns([]models.TagPattern{
		{ID: 1, TagID: 100, Pattern: "GAS", IsActive: true},
		{ID: 2, TagID: 200, Pattern: "APTO 2B", IsActive: true},
		{ID: 3, TagID: 300, Pattern: "NOMINA", IsActive: true},
	}, log)

	matched := Match(pats, "PAGO GAS APTO 2B")
	if len(matched) != 2 {
		t.Fatalf("Match() returned %d patterns, want 2", len(matched))
	}
	if matched[0].TargetID != 100 || matched[1].TargetID != 200 {
		t.Errorf("Match() targets = %d,%d want 100,200", matched[0].TargetID, matched[1].TargetID)
	}
}

func TestInactivePatternsAreSkipped(t *testing.T) {
	log := logger.NewWithWriter(io.Discard)
	pats := CompileOwnerPatterns([]models.OwnerPattern{
		ownerPat(1, 10, "RENT", false),
		ownerPat(2, 20, "RENT", true),
	}, log)

	p, ok := FirstMatch(pats, "RENT MARCH")
	if !ok {
		t.Fatal("FirstMatch() found nothing, want the active pattern")
	}
	if p.TargetID != 20 {
		t.Errorf("FirstMatch() target = %d, want 20", p.TargetID)
	}
}

func TestInvalidStoredPatternIsSkippedNotFatal(t *testing.T) {
	log := logger.NewWithWriter(io.Discard)
	pats := CompileOwnerPatterns([]models.OwnerPattern{
		ownerPat(1, 10, "([unclosed", true),
		ownerPat(2, 20, "RENT", true),
	}, log)

	if len(pats) != 1 {
		t.Fatalf("compiled %d patterns, want 1 (invalid skipped)", len(pats))
	}
	if _, ok := FirstMatch(pats, "RENT"); !ok {
		t.Error("FirstMatch() missed the surviving valid pattern")
	}
}

func TestNoMatch(t *testing.T) {
	log := logger.NewWithWriter(io.Discard)
	pats := CompileOwnerPatterns([]models.OwnerPattern{
		ownerPat(1, 10, "RENT", true),
	}, log)

	if _, ok := FirstMatch(pats, "GROCERIES"); ok {
		t.Error("FirstMatch() matched, want no match")
	}
	if got := Match(pats, "GROCERIES"); len(got) != 0 {
		t.Errorf("Match() returned %d patterns, want 0", len(got))
	}
}
