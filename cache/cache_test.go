package cache

import (
	"testing"

	"github.com/use-agent/leadscout/models"
)

func TestGetSet(t *testing.T) {
	c := New(4)
	key := Key("plumbers in Manchester", 20)

	if _, hit := c.Get(key, 60000); hit {
		t.Fatal("hit on an empty cache")
	}

	want := &models.ExtractionResult{RecordsFound: 3}
	c.Set(key, want)

	got, hit := c.Get(key, 60000)
	if !hit {
		t.Fatal("miss immediately after Set")
	}
	if got.RecordsFound != 3 {
		t.Errorf("RecordsFound = %d, want 3", got.RecordsFound)
	}
}

func TestGet_MaxAgeDisabled(t *testing.T) {
	c := New(4)
	key := Key("q", 20)
	c.Set(key, &models.ExtractionResult{})

	if _, hit := c.Get(key, 0); hit {
		t.Error("maxAge <= 0 must disable the lookup")
	}
}

func TestKey_DistinguishesCap(t *testing.T) {
	if Key("q", 20) == Key("q", 10) {
		t.Error("same query with different caps must produce different keys")
	}
	if Key("a", 20) == Key("b", 20) {
		t.Error("different queries must produce different keys")
	}
}

func TestSet_EvictsAtCapacity(t *testing.T) {
	c := New(2)
	c.Set(Key("a", 1), &models.ExtractionResult{})
	c.Set(Key("b", 1), &models.ExtractionResult{})
	c.Set(Key("c", 1), &models.ExtractionResult{})

	if len(c.store) > 2 {
		t.Errorf("store holds %d entries, capacity is 2", len(c.store))
	}
}
