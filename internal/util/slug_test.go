package util

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		parts []string
		want  string
	}{
		{[]string{"Honda", "Jazz", "2019", "J01"}, "honda-jazz-2019-j01"},
		{[]string{"Toyota", "Kijang Innova", "2018"}, "toyota-kijang-innova-2018"},
		{[]string{"  Honda ", "", "CR-V"}, "honda-cr-v"},
		{[]string{"Pajero Sport (Dakar)"}, "pajero-sport-dakar"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.parts...); got != tc.want {
			t.Errorf("Slugify(%v) = %q, want %q", tc.parts, got, tc.want)
		}
	}
}

func TestNewIDShape(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 24 {
		t.Fatalf("expected 24 hex chars, got %d (%q)", len(a), a)
	}
	if a == b {
		t.Fatal("ids must not repeat")
	}
}
