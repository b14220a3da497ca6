package models

import "strings"

// linkRate holds the per-lane signaling rate in Gbit/s and the encoding
// efficiency of one InfiniBand speed code.
type linkRate struct {
	rate     float64
	encoding float64
}

// Speed codes and rates as configured by the subnet manager. SDR/DDR/QDR
// use 8b/10b encoding, FDR and later 64b/66b.
var linkRates = map[string]linkRate{
	"SDR":   {rate: 2.5, encoding: 8.0 / 10},
	"DDR":   {rate: 5, encoding: 8.0 / 10},
	"QDR":   {rate: 10, encoding: 8.0 / 10},
	"FDR":   {rate: 14.0625, encoding: 64.0 / 66},
	"FDR10": {rate: 10, encoding: 64.0 / 66},
	"EDR":   {rate: 25, encoding: 64.0 / 66},
}

// LinkGbits derives the bandwidth of a link from its speed code and
// width field ("<lanes>x"). An unrecognized speed code yields the
// sentinel value 1; a zero or unparseable lane count yields 0.
func LinkGbits(speed, width string) float64 {
	r, ok := linkRates[speed]
	if !ok {
		return 1
	}
	return r.rate * r.encoding * float64(laneCount(width))
}

// laneCount parses the leading integer before the literal "x" in a
// width field. "4x" -> 4, "12x" -> 12, anything else -> 0.
func laneCount(width string) int {
	i := strings.IndexByte(width, 'x')
	if i <= 0 {
		return 0
	}
	lanes := 0
	for _, c := range width[:i] {
		if c < '0' || c > '9' {
			return 0
		}
		lanes = lanes*10 + int(c-'0')
	}
	return lanes
}
