package probe

import (
	"context"
	"testing"
)

func TestDiagnose_OfflineClasses(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", DNSInvalidName},
		{"not a url", DNSInvalidName},
		{"http://10.0.0.5:3333", DNSLiteralIP},
		{"http://[::1]:8080/", DNSLiteralIP},
	}
	for _, c := range cases {
		if got := Diagnose(context.Background(), c.in); got.Class != c.want {
			t.Fatalf("Diagnose(%q).Class=%q want %q", c.in, got.Class, c.want)
		}
	}
}

func TestHostOf(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"http://10.0.0.5:3333", "10.0.0.5"},
		{"https://api.example.com/base/", "api.example.com"},
		{"example.com", "example.com"},
	}
	for _, c := range cases {
		if got := hostOf(c.in); got != c.want {
			t.Fatalf("hostOf(%q)=%q want %q", c.in, got, c.want)
		}
	}
}
