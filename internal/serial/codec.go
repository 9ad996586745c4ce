// internal/serial/codec.go
package serial

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// A serial token is the full URL printed inside a product QR code:
//
//	<site>?p=GGGGGGGGGGSSSSSSSSSS
//
// where the first ten digits are the product GTIN/barcode and the last ten
// are the per-unit serial suffix. The full URL is the unit of uniqueness,
// not the bare serial.
var (
	payloadPattern = regexp.MustCompile(`^\d{20}$`)
	digits10       = regexp.MustCompile(`^\d{10}$`)

	// Host-agnostic recovery pattern. Matching against it is only allowed
	// when the codec is explicitly configured lenient; see Decode.
	lenientPattern = regexp.MustCompile(`\?p=(\d{10})(\d{10})$`)
)

type Codec struct {
	siteURL string
	strict  *regexp.Regexp
	lenient bool
}

// NewCodec builds a codec bound to the given site URL. With lenientHostMatch
// set, tokens whose host part does not match the site URL are still accepted
// as long as the ?p= payload is well formed; every such match is logged since
// it usually means the site URL changed after the labels were printed.
func NewCodec(siteURL string, lenientHostMatch bool) *Codec {
	trimmed := strings.TrimRight(siteURL, "/")
	return &Codec{
		siteURL: trimmed,
		strict:  regexp.MustCompile(`^` + regexp.QuoteMeta(trimmed) + `\?p=(\d{10})(\d{10})$`),
		lenient: lenientHostMatch,
	}
}

func (c *Codec) SiteURL() string {
	return c.siteURL
}

// Encode builds the full serial URL for a GTIN/serial pair.
func (c *Codec) Encode(gtin, serial string) (string, error) {
	if !digits10.MatchString(gtin) {
		return "", fmt.Errorf("gtin must be exactly 10 digits, got %q", gtin)
	}
	if !digits10.MatchString(serial) {
		return "", fmt.Errorf("serial must be exactly 10 digits, got %q", serial)
	}
	return fmt.Sprintf("%s?p=%s%s", c.siteURL, gtin, serial), nil
}

// Decode parses a stored serial token back into its GTIN and serial parts.
func (c *Codec) Decode(token string) (gtin, serial string, err error) {
	if m := c.strict.FindStringSubmatch(token); m != nil {
		return m[1], m[2], nil
	}
	if c.lenient {
		if m := lenientPattern.FindStringSubmatch(token); m != nil {
			logrus.WithField("token", token).Warn("Serial matched with lenient host pattern; site URL may have changed")
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("invalid serial format: %s", token)
}

// DecodePayload parses the raw 20-digit QR query value. Scans carry only the
// digits, so unlike Decode this check is deliberately host-free.
func DecodePayload(p string) (gtin, serial string, err error) {
	if !payloadPattern.MatchString(p) {
		return "", "", fmt.Errorf("invalid payload format: %s", p)
	}
	return p[:10], p[10:], nil
}
