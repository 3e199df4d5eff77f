// Package cookies exports browser cookies to the Netscape cookies.txt
// format that yt-dlp accepts via --cookies.
package cookies

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all"
)

const netscapeHeader = "# Netscape HTTP Cookie File\n# https://curl.haxx.se/rfc/cookie_spec.html\n# This is a generated file! Do not edit.\n\n"

// Read collects valid cookies for domain. With browser empty or "all" every
// discoverable store is consulted; otherwise only stores of that browser.
func Read(ctx context.Context, browser, domain string) ([]*kooky.Cookie, error) {
	if browser == "" || strings.EqualFold(browser, "all") {
		return kooky.ReadCookies(ctx, kooky.Valid, kooky.Domain(domain))
	}

	var out []*kooky.Cookie
	found := false
	for _, store := range kooky.FindAllCookieStores(ctx) {
		if !strings.EqualFold(store.Browser(), browser) {
			continue
		}
		found = true
		cs, err := store.TraverseCookies(kooky.Valid, kooky.Domain(domain)).ReadAllCookies(ctx)
		if err != nil {
			// A locked or unreadable profile should not sink the rest.
			continue
		}
		out = append(out, cs...)
	}
	if !found {
		return nil, fmt.Errorf("no cookie store found for browser %q", browser)
	}
	return out, nil
}

// WriteNetscape serializes cookies in the cookies.txt format.
func WriteNetscape(w io.Writer, cookies []*kooky.Cookie) error {
	if _, err := io.WriteString(w, netscapeHeader); err != nil {
		return err
	}
	for _, c := range cookies {
		domain := c.Domain
		includeSub := "FALSE"
		if strings.HasPrefix(domain, ".") {
			includeSub = "TRUE"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, includeSub, path, secure, expires, c.Name, c.Value); err != nil {
			return err
		}
	}
	return nil
}

// Export reads cookies for domain from the given browser and writes them to
// path. It returns how many cookies were written.
func Export(ctx context.Context, browser, domain, path string) (int, error) {
	cs, err := Read(ctx, browser, domain)
	if err != nil {
		return 0, err
	}
	if len(cs) == 0 {
		return 0, fmt.Errorf("no cookies found for %s", domain)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	if err := WriteNetscape(f, cs); err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return len(cs), nil
}
