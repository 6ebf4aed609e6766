package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("X_DUR", "20s")
	if got := Duration("X_DUR", time.Minute); got != 20*time.Second {
		t.Fatalf("duration string: want=%s got=%s", 20*time.Second, got)
	}
	t.Setenv("X_DUR", "15")
	if got := Duration("X_DUR", time.Minute); got != 15*time.Second {
		t.Fatalf("bare seconds: want=%s got=%s", 15*time.Second, got)
	}
	t.Setenv("X_DUR", "nope")
	if got := Duration("X_DUR", time.Minute); got != time.Minute {
		t.Fatalf("invalid: want=%s got=%s", time.Minute, got)
	}
}

func TestCSV(t *testing.T) {
	t.Setenv("X_CSV", " a, ,b ,c")
	got := CSV("X_CSV", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("csv: unexpected %v", got)
	}
	t.Setenv("X_CSV", "")
	if got := CSV("X_CSV", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Fatalf("csv default: unexpected %v", got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("X_BOOL", "on")
	if !Bool("X_BOOL", false) {
		t.Fatalf("bool: want=true")
	}
	t.Setenv("X_INT", "abc")
	if got := Int("X_INT", 7); got != 7 {
		t.Fatalf("int fallback: want=7 got=%d", got)
	}
}
