package categories

import (
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"expensetracker/internal/core"
)

func expenses(categories ...string) []core.Expense {
	out := make([]core.Expense, len(categories))
	for i, c := range categories {
		out[i] = core.Expense{Category: c, Amount: core.Money{Cents: 100}}
	}
	return out
}

func TestBuiltInColorsAreFixed(t *testing.T) {
	r := New()
	// Touch unknown names first; built-ins must not be affected by call order.
	r.ColorFor("Zebra")
	r.ColorFor("Aardvark")
	want := core.Color{R: 1.0, G: 0.584, B: 0.0}
	if got := r.ColorFor("Food"); got != want {
		t.Fatalf("Food color = %+v, want %+v", got, want)
	}
	if other := New().ColorFor("Other"); other != r.ColorFor("Other") {
		t.Fatalf("built-in colors differ between registries")
	}
}

// Generated colors are random per process; only stability within one
// registry and the channel range are asserted.
func TestColorForUnknownIsStableAndInRange(t *testing.T) {
	r := New(WithRand(rand.New(rand.NewPCG(1, 2))))
	first := r.ColorFor("Pets")
	for i := 0; i < 5; i++ {
		if got := r.ColorFor("Pets"); got != first {
			t.Fatalf("color changed between calls: %+v vs %+v", first, got)
		}
	}
	for _, ch := range []float64{first.R, first.G, first.B} {
		if ch < minChannel || ch > maxChannel {
			t.Fatalf("channel %v outside [%v, %v]", ch, minChannel, maxChannel)
		}
	}
}

func TestColorForConcurrentCallersAgree(t *testing.T) {
	r := New()
	const workers = 16
	results := make([]core.Color, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.ColorFor("Garden")
		}(i)
	}
	wg.Wait()
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d saw a different color: %+v vs %+v", i, results[i], results[0])
		}
	}
}

func TestCurrentCategoriesOrder(t *testing.T) {
	r := New()
	r.UpdateDynamic(expenses("Pets", "Food", "Garden", "Pets", "", "Books"))
	got := r.CurrentCategories()
	want := append(BuiltInNames(), "Books", "Garden", "Pets")
	if !slices.Equal(got, want) {
		t.Fatalf("CurrentCategories() = %v, want %v", got, want)
	}
}

func TestUpdateDynamicReplaces(t *testing.T) {
	r := New()
	r.UpdateDynamic(expenses("Pets", "Garden"))
	r.UpdateDynamic(expenses("Garden"))
	if got := r.Dynamic(); !slices.Equal(got, []string{"Garden"}) {
		t.Fatalf("expected only Garden, got %v", got)
	}
	r.UpdateDynamic(nil)
	if got := r.Dynamic(); len(got) != 0 {
		t.Fatalf("UpdateDynamic(nil) should clear dynamic categories, got %v", got)
	}
}

func TestAddCategory(t *testing.T) {
	r := New()
	if !r.AddCategory("  Pets ") {
		t.Fatal("expected Pets to be added")
	}
	for _, name := range []string{"", "   ", "Food", "Pets", core.PlaceholderCategory} {
		if r.AddCategory(name) {
			t.Errorf("AddCategory(%q) should be a no-op", name)
		}
	}
	if got := r.Dynamic(); !slices.Equal(got, []string{"Pets"}) {
		t.Fatalf("unexpected dynamic set %v", got)
	}
	entries := r.Entries()
	last := entries[len(entries)-1]
	if last.Name != "Pets" || last.BuiltIn || last.Color != r.ColorFor("Pets") {
		t.Fatalf("unexpected entry %+v", last)
	}
}

// With the default policy a manually added category that no expense uses
// yet disappears on the next UpdateDynamic call.
func TestAddCategoryDroppedByReplacePolicy(t *testing.T) {
	r := New()
	r.AddCategory("Pets")
	r.UpdateDynamic(expenses("Food"))
	if got := r.Dynamic(); len(got) != 0 {
		t.Fatalf("expected manual category to be dropped under replace policy, got %v", got)
	}
}

func TestAddCategoryKeptByUnionPolicy(t *testing.T) {
	r := New(WithMergePolicy(Union))
	r.AddCategory("Pets")
	r.UpdateDynamic(expenses("Garden"))
	if got := r.Dynamic(); !slices.Equal(got, []string{"Garden", "Pets"}) {
		t.Fatalf("expected union of manual and discovered categories, got %v", got)
	}
}

func TestParseMergePolicy(t *testing.T) {
	for in, want := range map[string]MergePolicy{"": Replace, "Replace": Replace, " union ": Union} {
		got, err := ParseMergePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseMergePolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseMergePolicy("merge"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
