package raw

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("LOG_LEVEL", " info ")
	t.Setenv("LOG_BLANK", "   ")
	c := New().Prefix("LOG_")

	if got := c.Get("LEVEL", "debug"); got != "info" {
		t.Fatalf("Get = %q", got)
	}
	if got := c.Get("BLANK", "debug"); got != "debug" {
		t.Fatalf("Get blank = %q", got)
	}
	if got := c.Get("MISSING", "x"); got != "x" {
		t.Fatalf("Get missing = %q", got)
	}
}

func TestGetBool(t *testing.T) {
	c := New().Prefix("LOG_")
	cases := map[string]bool{"1": true, "TRUE": true, "yes": true, "no": false, "0": false, "off": false}
	for v, want := range cases {
		t.Setenv("LOG_CALLER", v)
		if got := c.GetBool("CALLER", !want); got != want {
			t.Errorf("GetBool(%q) = %v", v, got)
		}
	}
	if !c.GetBool("MISSING", true) {
		t.Error("GetBool missing should use default")
	}
}

func TestGetInt(t *testing.T) {
	c := New().Prefix("LOG_")
	cases := map[string]int{"10": 10, "0": 0, "-3": 7, "ten": 7, "": 7}
	for v, want := range cases {
		t.Setenv("LOG_SAMPLE_EVERY", v)
		if got := c.GetInt("SAMPLE_EVERY", 7); got != want {
			t.Errorf("GetInt(%q) = %d, want %d", v, got, want)
		}
	}
}
