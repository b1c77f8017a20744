package pdf

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

var (
	bfCharSectionRe  = regexp.MustCompile(`(?s)beginbfchar(.*?)endbfchar`)
	bfRangeSectionRe = regexp.MustCompile(`(?s)beginbfrange(.*?)endbfrange`)
	bfCharRe         = regexp.MustCompile(`<([0-9A-Fa-f\s]+)>\s*<([0-9A-Fa-f\s]*)>`)
	bfRangeRe        = regexp.MustCompile(`<([0-9A-Fa-f\s]+)>\s*<([0-9A-Fa-f\s]+)>\s*(<[0-9A-Fa-f\s]*>|\[[^\]]*\])`)
	hexTokenRe       = regexp.MustCompile(`<([0-9A-Fa-f\s]*)>`)
)

// ToUnicodeCMap maps character codes of a font to Unicode text. It is used to
// decode shown strings when a document is read through pdfcpu.
type ToUnicodeCMap struct {
	// Direct character mappings (from beginbfchar sections)
	codeToUnicode map[uint32]string

	// Range mappings (from beginbfrange sections)
	ranges []cmapRange

	// Code width in bytes, taken from the source codes of the mappings
	codeBytes int
}

// cmapRange represents a contiguous range mapping from beginbfrange
type cmapRange struct {
	start, end uint32
	dst        []rune   // first destination; the last rune is incremented across the range
	array      []string // explicit destinations, one per code
}

// NewToUnicodeCMap creates a new ToUnicode CMap parser
func NewToUnicodeCMap() *ToUnicodeCMap {
	return &ToUnicodeCMap{
		codeToUnicode: make(map[uint32]string),
		codeBytes:     1,
	}
}

// Parse parses a ToUnicode CMap stream
func (cmap *ToUnicodeCMap) Parse(data []byte) error {
	content := string(data)

	for _, section := range bfCharSectionRe.FindAllStringSubmatch(content, -1) {
		for _, m := range bfCharRe.FindAllStringSubmatch(section[1], -1) {
			src, err := decodeHex(m[1])
			if err != nil {
				return fmt.Errorf("failed to parse beginbfchar: %w", err)
			}
			dst, err := decodeHex(m[2])
			if err != nil {
				return fmt.Errorf("failed to parse beginbfchar: %w", err)
			}
			cmap.noteWidth(src)
			cmap.codeToUnicode[codeOf(src)] = utf16BEToString(dst)
		}
	}

	for _, section := range bfRangeSectionRe.FindAllStringSubmatch(content, -1) {
		for _, m := range bfRangeRe.FindAllStringSubmatch(section[1], -1) {
			lo, err := decodeHex(m[1])
			if err != nil {
				return fmt.Errorf("failed to parse beginbfrange: %w", err)
			}
			hi, err := decodeHex(m[2])
			if err != nil {
				return fmt.Errorf("failed to parse beginbfrange: %w", err)
			}
			cmap.noteWidth(lo)

			r := cmapRange{start: codeOf(lo), end: codeOf(hi)}
			if strings.HasPrefix(m[3], "[") {
				for _, item := range hexTokenRe.FindAllStringSubmatch(m[3], -1) {
					dst, err := decodeHex(item[1])
					if err != nil {
						return fmt.Errorf("failed to parse beginbfrange: %w", err)
					}
					r.array = append(r.array, utf16BEToString(dst))
				}
			} else {
				dst, err := decodeHex(strings.Trim(m[3], "<>"))
				if err != nil {
					return fmt.Errorf("failed to parse beginbfrange: %w", err)
				}
				r.dst = []rune(utf16BEToString(dst))
			}
			cmap.ranges = append(cmap.ranges, r)
		}
	}

	return nil
}

// Lookup maps a single character code to its Unicode string
func (cmap *ToUnicodeCMap) Lookup(code uint32) (string, bool) {
	if s, ok := cmap.codeToUnicode[code]; ok {
		return s, true
	}

	for _, r := range cmap.ranges {
		if code < r.start || code > r.end {
			continue
		}
		offset := int(code - r.start)
		if r.array != nil {
			if offset < len(r.array) {
				return r.array[offset], true
			}
			return "", false
		}
		if len(r.dst) == 0 {
			return "", false
		}
		out := append([]rune(nil), r.dst...)
		out[len(out)-1] += rune(offset)
		return string(out), true
	}

	return "", false
}

// Decode decodes the raw bytes of a shown string. Codes without a mapping
// are passed through as single bytes.
func (cmap *ToUnicodeCMap) Decode(raw string) string {
	var result strings.Builder
	width := cmap.codeBytes

	for i := 0; i < len(raw); i += width {
		if i+width > len(raw) {
			width = len(raw) - i
		}
		var code uint32
		for _, b := range []byte(raw[i : i+width]) {
			code = code<<8 | uint32(b)
		}
		if s, ok := cmap.Lookup(code); ok {
			result.WriteString(s)
			continue
		}
		result.WriteString(raw[i : i+width])
	}

	return result.String()
}

// MappingCount returns the total number of mapped codes
func (cmap *ToUnicodeCMap) MappingCount() int {
	count := len(cmap.codeToUnicode)
	for _, r := range cmap.ranges {
		if r.end >= r.start {
			count += int(r.end-r.start) + 1
		}
	}
	return count
}

func (cmap *ToUnicodeCMap) noteWidth(src []byte) {
	if len(src) > cmap.codeBytes && len(src) <= 4 {
		cmap.codeBytes = len(src)
	}
}

func decodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if len(s)%2 == 1 {
		s += "0"
	}
	return hex.DecodeString(s)
}

func codeOf(b []byte) uint32 {
	var code uint32
	for _, c := range b {
		code = code<<8 | uint32(c)
	}
	return code
}

// utf16BEToString converts a UTF-16BE destination to a Go string. A single
// byte is taken as a Latin-1 code point.
func utf16BEToString(b []byte) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}
