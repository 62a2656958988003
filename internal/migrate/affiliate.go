package migrate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Affiliate prefixes purchase link URLs with an affiliate redirect and marks
// them as affiliate links. When host is set, only URLs containing it are
// rewritten. Links that already carry the prefix are left alone.
func Affiliate(dir, prefix, host string, opts Options) ([]Result, error) {
	if prefix == "" {
		return nil, fmt.Errorf("affiliate prefix required")
	}
	return apply(dir, opts, func(raw []byte) ([]byte, int, error) {
		return affiliateLinks(raw, prefix, host)
	})
}

func affiliateLinks(raw []byte, prefix, host string) ([]byte, int, error) {
	n := 0
	var err error
	for i, size := range gjson.ParseBytes(raw).Array() {
		links := size.Get("purchase_links")
		if !links.IsArray() {
			continue
		}
		for j, link := range links.Array() {
			orig := link.Get("url")
			if orig.Type != gjson.String || strings.HasPrefix(orig.Str, prefix) {
				continue
			}
			if host != "" && !strings.Contains(orig.Str, host) {
				continue
			}
			base := fmt.Sprintf("%d.purchase_links.%d", i, j)
			if raw, err = sjson.SetBytes(raw, base+".url", prefix+EscapeURL(orig.Str)); err != nil {
				return nil, 0, err
			}
			if raw, err = sjson.SetBytes(raw, base+".affiliate", true); err != nil {
				return nil, 0, err
			}
			n++
		}
	}
	return raw, n, nil
}

// EscapeURL percent-encodes everything except unreserved characters so the
// URL can travel as a single query value.
func EscapeURL(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
