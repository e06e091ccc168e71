package grepkit

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	unicodeenc "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const ellipsis = "..."

// encodings lists the source encodings accepted by WithEncoding.
var encodings = map[string]encoding.Encoding{
	"utf-8":        unicodeenc.UTF8,
	"utf-16le":     unicodeenc.UTF16(unicodeenc.LittleEndian, unicodeenc.IgnoreBOM),
	"utf-16be":     unicodeenc.UTF16(unicodeenc.BigEndian, unicodeenc.IgnoreBOM),
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"windows-1251": charmap.Windows1251,
	"koi8-r":       charmap.KOI8R,
	"shift_jis":    japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"gbk":          simplifiedchinese.GBK,
	"gb18030":      simplifiedchinese.GB18030,
	"big5":         traditionalchinese.Big5,
	"euc-kr":       korean.EUCKR,
}

// lookupEncoding returns the named encoding, or nil when it is unknown.
func lookupEncoding(name string) encoding.Encoding {
	return encodings[strings.ToLower(strings.TrimSpace(name))]
}

// SupportedEncodings returns the names accepted by WithEncoding.
func SupportedEncodings() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	return names
}

// decodeReader transcodes r to UTF-8. Without an explicit encoding a UTF-16
// byte order mark switches decoding and a UTF-8 one is dropped; other input
// passes through untouched.
func decodeReader(r io.Reader, enc encoding.Encoding) io.Reader {
	if enc != nil {
		return transform.NewReader(r, enc.NewDecoder())
	}
	return transform.NewReader(r, unicodeenc.BOMOverride(transform.Nop))
}

// decodeLine converts raw line bytes to a string, replacing invalid UTF-8
// with U+FFFD, and drops trailing whitespace.
func decodeLine(b []byte) string {
	var s string
	if utf8.Valid(b) {
		s = string(b)
	} else if out, err := unicodeenc.UTF8.NewDecoder().Bytes(b); err == nil {
		s = string(out)
	} else {
		s = strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// truncateLine shortens lines longer than maxColumns bytes. The cut lands on
// a grapheme cluster boundary at or before maxColumns-3 and "..." is
// appended. maxColumns <= 0 disables truncation.
func truncateLine(line string, maxColumns int) (string, bool) {
	if maxColumns <= 0 || len(line) <= maxColumns {
		return line, false
	}
	limit := max(maxColumns-len(ellipsis), 0)

	end := 0
	rest := line
	state := -1
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if end+len(cluster) > limit {
			break
		}
		end += len(cluster)
	}
	return line[:end] + ellipsis, true
}

// foldString applies Unicode case folding for case-insensitive comparison.
func foldString(s string) string {
	return cases.Fold().String(s)
}
