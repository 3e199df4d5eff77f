package format

import "testing"

func TestHumanizeBytes(t *testing.T) {
	const mib = 1024 * 1024

	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{mib, "1.0 MB"},
		{50 * mib, "50.0 MB"},
		{1536 * mib, "1.5 GB"},
		{5 * 1024 * mib, "5.0 GB"},
		{1024 * 1024 * mib, "1.0 TB"},
		{1024 * 1024 * 1024 * mib, "1.0 PB"},
	}

	for _, tt := range tests {
		if got := HumanizeBytes(tt.bytes); got != tt.want {
			t.Errorf("HumanizeBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
