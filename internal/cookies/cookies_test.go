package cookies

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/browserutils/kooky"
)

func TestWriteNetscape(t *testing.T) {
	exp := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	in := []*kooky.Cookie{
		{Cookie: http.Cookie{
			Name:    "SID",
			Value:   "abc123",
			Domain:  ".example.com",
			Path:    "/",
			Secure:  true,
			Expires: exp,
		}},
		{Cookie: http.Cookie{
			Name:   "pref",
			Value:  "dark",
			Domain: "media.example.com",
			// no path, no expiry: session cookie
		}},
	}

	var b strings.Builder
	if err := WriteNetscape(&b, in); err != nil {
		t.Fatalf("WriteNetscape: %v", err)
	}
	out := b.String()

	if !strings.HasPrefix(out, "# Netscape HTTP Cookie File\n") {
		t.Error("missing Netscape header")
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var rows []string
	for _, l := range lines {
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		rows = append(rows, l)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d cookie rows, want 2:\n%s", len(rows), out)
	}

	wantFirst := ".example.com\tTRUE\t/\tTRUE\t" +
		"1798859045\tSID\tabc123"
	if rows[0] != wantFirst {
		t.Errorf("row[0] = %q, want %q", rows[0], wantFirst)
	}

	fields := strings.Split(rows[1], "\t")
	if len(fields) != 7 {
		t.Fatalf("row[1] has %d fields, want 7: %q", len(fields), rows[1])
	}
	if fields[1] != "FALSE" {
		t.Errorf("subdomain flag = %s, want FALSE for host-only cookie", fields[1])
	}
	if fields[2] != "/" {
		t.Errorf("empty path serialized as %q, want /", fields[2])
	}
	if fields[4] != "0" {
		t.Errorf("session cookie expiry = %s, want 0", fields[4])
	}
}
