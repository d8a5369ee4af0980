package rulecache

import (
	"testing"

	"github.com/lithammer/dedent"

	"github.com/smpl-xyz/go-smpl/smpl"
)

const swapPatch = `
	@ swap @
	identifier x;
	@@
	- foo(x);
	+ bar(x);
	`

const logPatch = `
	@ log @
	identifier f;
	@@
	- f();
	`

func TestNewRuleCache(t *testing.T) {
	cache := NewRuleCache(100)
	if cache.Size() != 0 {
		t.Error("New cache should be empty")
	}
}

func TestRuleCachePutGet(t *testing.T) {
	cache := NewRuleCache(100)

	source := dedent.Dedent(swapPatch)
	rule, err := smpl.Parse(source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cache.Put(source, rule)

	retrieved := cache.Get(source)
	if retrieved != rule {
		t.Error("Should retrieve same rule")
	}

	// Different source should miss
	if cache.Get(dedent.Dedent(logPatch)) != nil {
		t.Error("Different source should miss")
	}
}

func TestRuleCacheEviction(t *testing.T) {
	cache := NewRuleCache(2)

	// Add 3 entries to trigger eviction
	cache.Put("a", &smpl.Rule{})
	cache.Put("b", &smpl.Rule{})
	cache.Put("c", &smpl.Rule{})

	if cache.Size() > 2 {
		t.Errorf("Cache size should be <= 2, got %d", cache.Size())
	}
}

func TestRuleCacheGetOrParse(t *testing.T) {
	cache := NewRuleCache(100)

	source := dedent.Dedent(swapPatch)

	// First call should parse
	rule1, err := cache.GetOrParse(source)
	if err != nil {
		t.Fatalf("GetOrParse failed: %v", err)
	}
	if rule1 == nil {
		t.Fatal("Should return a rule")
	}

	// Second call should use cache
	rule2, err := cache.GetOrParse(source)
	if err != nil {
		t.Fatalf("GetOrParse failed: %v", err)
	}
	if rule1 != rule2 {
		t.Error("Should return same rule")
	}

	stats := cache.Stats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
}

func TestRuleCacheGetOrParseError(t *testing.T) {
	cache := NewRuleCache(100)

	if _, err := cache.GetOrParse("not a patch"); err == nil {
		t.Error("Invalid patch should fail")
	}
	if cache.Size() != 0 {
		t.Error("Failed parse should not be cached")
	}
}

func TestRuleCacheStats(t *testing.T) {
	cache := NewRuleCache(100)

	cache.Put("a", &smpl.Rule{})

	// Hit
	cache.Get("a")
	// Miss
	cache.Get("b")

	stats := cache.Stats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Expected 0.5 hit rate, got %f", stats.HitRate)
	}
}

func TestRuleCacheClear(t *testing.T) {
	cache := NewRuleCache(100)
	cache.Put("a", &smpl.Rule{})
	cache.Put("b", &smpl.Rule{})

	cache.Clear()

	if cache.Size() != 0 {
		t.Error("Cache should be empty after clear")
	}
}

func TestRuleCacheUnlimited(t *testing.T) {
	cache := NewRuleCache(0)

	for _, key := range []string{"a", "b", "c", "d", "e"} {
		cache.Put(key, &smpl.Rule{})
	}

	if cache.Size() != 5 {
		t.Errorf("Unlimited cache should keep all entries, got %d", cache.Size())
	}
	if cache.Stats().Evictions != 0 {
		t.Error("Unlimited cache should not evict")
	}
}

func TestHashSourceDeterminism(t *testing.T) {
	hash1 := hashSource("- foo(x);")
	hash2 := hashSource("- foo(x);")

	if hash1 != hash2 {
		t.Error("Hash should be deterministic")
	}
}

func TestHashSourceDifferent(t *testing.T) {
	hash1 := hashSource("- foo(x);")
	hash2 := hashSource("- bar(x);")

	if hash1 == hash2 {
		t.Error("Different sources should have different hashes")
	}
}
