package duration

import "testing"

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  uint32
	}{
		{"minutes", "30 minutes", 1800},
		{"single unit short", "2h", 7200},
		{"mixed units", "3 months 2 days 12 hours 4 minutes 34 seconds", 3*30*86400 + 2*86400 + 12*3600 + 4*60 + 34},
		{"months and days", "3 months 2 days", 3*30*86400 + 2*86400},
		{"uppercase", "1 HOUR", 3600},
		{"no space before unit", "45min", 2700},
		{"one year", "1 year", 365 * 86400},
		{"repeated unit sums", "1 hour 1 hour", 7200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if !ok {
				t.Fatalf("Parse(%q) not ok", tt.input)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Clamping(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  uint32
	}{
		{"below minimum raised", "5 seconds", 30},
		{"exactly minimum", "30 seconds", 30},
		{"above maximum capped", "1000 years", 365 * 86400},
		{"just above maximum", "366 days", 365 * 86400},
		{"huge digit run saturates", "99999999999999999999 years", 365 * 86400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if !ok {
				t.Fatalf("Parse(%q) not ok", tt.input)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no tokens", "banana"},
		{"bad unit invalidates whole input", "10 ages"},
		{"good token plus bad token", "2 hours 10 ages"},
		{"number without unit", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := Parse(tt.input); ok {
				t.Errorf("Parse(%q) = (%d, true), want not ok", tt.input, got)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		seconds uint32
		want    string
	}{
		{"zero is off", 0, "Off"},
		{"seconds only", 30, "30 seconds"},
		{"one second singular", 1, "1 second"},
		{"minutes", 1800, "30 minutes"},
		{"one hour", 3600, "1 hour"},
		{"day hour minute", 86400 + 3600 + 60, "1 day 1 hour 1 minute"},
		{"seconds dropped next to larger units", 3661, "1 hour 1 minute"},
		{"full year", 365 * 86400, "365 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.seconds); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

// TestRoundTrip verifies that formatting survives a re-parse for values that
// are already in canonical clamped form and have no bare-seconds remainder
// next to larger units.
func TestRoundTrip(t *testing.T) {
	for _, secs := range []uint32{30, 60, 1800, 3600, 7200, 86400, 90000, 365 * 86400} {
		text := Format(secs)
		parsed, ok := Parse(text)
		if !ok {
			t.Fatalf("Parse(Format(%d)) = Parse(%q) not ok", secs, text)
		}
		if Format(parsed) != text {
			t.Errorf("round trip %d: Format(%d) = %q, want %q", secs, parsed, Format(parsed), text)
		}
	}
}
