package social

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns the raw export into text, trying UTF-8 with BOM, plain UTF-8
// and CP932 in that order. The second result names the encoding used.
//
// Exports stitched together from several sources can mix encodings, so a
// file that is not valid UTF-8 is decoded line by line: valid UTF-8 lines are
// kept and the others are read as CP932. Such a file reports "mixed".
func Decode(raw []byte) (string, string) {
	if rest, ok := bytes.CutPrefix(raw, utf8BOM); ok && utf8.Valid(rest) {
		return string(rest), "utf-8-sig"
	}
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}
	return decodeLines(bytes.TrimPrefix(raw, utf8BOM))
}

func decodeLines(raw []byte) (string, string) {
	var (
		b                     strings.Builder
		utf8Lines, cp932Lines int
		lossy                 bool
	)
	b.Grow(len(raw) + len(raw)/2)
	dec := japanese.ShiftJIS.NewDecoder()

	// 0x0A is never a CP932 trail byte, so splitting on newlines is safe for both encodings.
	for _, line := range bytes.SplitAfter(raw, []byte("\n")) {
		if utf8.Valid(line) {
			if !isASCII(line) {
				utf8Lines++
			}
			b.Write(line)
			continue
		}
		if out, err := dec.Bytes(line); err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
			cp932Lines++
			b.Write(out)
			continue
		}
		lossy = true
		b.WriteString(strings.ToValidUTF8(string(line), "\uFFFD"))
	}

	switch {
	case lossy:
		return b.String(), "utf-8-lossy"
	case utf8Lines > 0 && cp932Lines > 0:
		return b.String(), "mixed"
	}
	return b.String(), "cp932"
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
