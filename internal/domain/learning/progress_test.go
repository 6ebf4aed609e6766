package learning

import "testing"

func TestUserProgressAddModuleIsSetUnion(t *testing.T) {
	p := &UserProgress{}
	if !p.AddModule("m1") {
		t.Fatalf("first add: want changed")
	}
	if p.AddModule("m1") {
		t.Fatalf("second add: want unchanged")
	}
	if !p.AddModule("m2") {
		t.Fatalf("m2 add: want changed")
	}
	got := p.Completed()
	if len(got) != 2 || got[0] != "m1" || got[1] != "m2" {
		t.Fatalf("completed: want=[m1 m2] got=%v", got)
	}
}

func TestUserProgressAddModuleCollapsesLegacyDuplicates(t *testing.T) {
	p := &UserProgress{CompletedModules: []string{"m1", "m1", "m2"}}
	if !p.AddModule("m2") {
		t.Fatalf("collapse: want changed when duplicates are removed")
	}
	if got := p.Completed(); len(got) != 2 {
		t.Fatalf("completed: want 2 entries got=%v", got)
	}
}

func TestCourseOrderedModules(t *testing.T) {
	c := &Course{Modules: []Module{{ID: "b", Order: 2}, {ID: "a", Order: 1}, {ID: "c", Order: 2}}}
	got := c.OrderedModules()
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("ordered: unexpected %v", got)
	}
	if c.Modules[0].ID != "b" {
		t.Fatalf("ordered must not mutate course modules")
	}
	if !c.HasModule("c") || c.HasModule("z") {
		t.Fatalf("HasModule mismatch")
	}
}
