package migrate

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// GTINLength is the length of a GTIN-12 (UPC-A) code.
const GTINLength = 12

// GTIN moves 12-character ean values to the gtin key.
func GTIN(dir string, opts Options) ([]Result, error) {
	return apply(dir, opts, moveGTIN)
}

func moveGTIN(raw []byte) ([]byte, int, error) {
	n := 0
	var err error
	for i, size := range gjson.ParseBytes(raw).Array() {
		ean := size.Get("ean")
		if ean.Type != gjson.String || len(ean.Str) != GTINLength {
			continue
		}
		if raw, err = sjson.SetBytes(raw, fmt.Sprintf("%d.gtin", i), ean.Str); err != nil {
			return nil, 0, err
		}
		if raw, err = sjson.DeleteBytes(raw, fmt.Sprintf("%d.ean", i)); err != nil {
			return nil, 0, err
		}
		n++
	}
	return raw, n, nil
}
