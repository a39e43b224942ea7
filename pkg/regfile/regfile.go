// pkg/regfile/regfile.go - model and encoder for REGEDIT5 .reg files.
//
// A backup writes registry subtrees as standard "Windows Registry Editor
// Version 5.00" files so they can be restored with reg.exe or regedit on a
// machine that has never seen Melody. reg.exe emits UTF-16LE with a BOM and
// CRLF line endings; WriteReg matches that so the files round-trip.

package regfile

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf16"
)

// Header is the first line of every version 5 registration file.
const Header = "Windows Registry Editor Version 5.00"

// legacyHeader is accepted on parse for ANSI-era exports.
const legacyHeader = "REGEDIT4"

// Kind identifies the registry value type carried by a Value.
type Kind int

const (
	String Kind = iota
	ExpandString
	Binary
	DWord
	QWord
	MultiString
)

// String returns the registry type name for a Kind.
func (k Kind) String() string {
	switch k {
	case String:
		return "REG_SZ"
	case ExpandString:
		return "REG_EXPAND_SZ"
	case Binary:
		return "REG_BINARY"
	case DWord:
		return "REG_DWORD"
	case QWord:
		return "REG_QWORD"
	case MultiString:
		return "REG_MULTI_SZ"
	default:
		return "REG_UNKNOWN"
	}
}

// Value is a single registry value. The field used depends on Kind:
// Str for String/ExpandString, Strs for MultiString, Num for DWord/QWord,
// Data for Binary. An empty Name is the key's default value.
type Value struct {
	Name string
	Kind Kind
	Str  string
	Strs []string
	Num  uint64
	Data []byte
}

// Key is one registry key with its values. Path is the full key path
// including the root, e.g. `HKEY_CURRENT_USER\Control Panel\Mouse`.
type Key struct {
	Path   string
	Values []Value
}

// Encode renders keys as .reg text with CRLF line endings.
func Encode(keys []Key) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\r\n")

	for _, key := range keys {
		b.WriteString("\r\n[")
		b.WriteString(key.Path)
		b.WriteString("]\r\n")

		values := append([]Value(nil), key.Values...)
		sort.SliceStable(values, func(i, j int) bool {
			// Default value first, then by name.
			if values[i].Name == "" || values[j].Name == "" {
				return values[i].Name == ""
			}
			return strings.ToLower(values[i].Name) < strings.ToLower(values[j].Name)
		})

		for _, val := range values {
			b.WriteString(encodeValue(val))
			b.WriteString("\r\n")
		}
	}
	return b.String()
}

// WriteReg writes keys as a UTF-16LE .reg file with a byte order mark,
// matching the output of reg.exe export.
func WriteReg(w io.Writer, keys []Key) error {
	text := Encode(keys)
	codes := utf16.Encode([]rune(text))
	buf := make([]byte, 0, len(codes)*2+2)
	buf = append(buf, 0xFF, 0xFE)
	for _, c := range codes {
		buf = append(buf, byte(c), byte(c>>8))
	}
	_, err := w.Write(buf)
	return err
}

func encodeValue(val Value) string {
	name := "@"
	if val.Name != "" {
		name = `"` + escapeString(val.Name) + `"`
	}

	switch val.Kind {
	case String:
		return fmt.Sprintf(`%s="%s"`, name, escapeString(val.Str))
	case DWord:
		return fmt.Sprintf("%s=dword:%08x", name, uint32(val.Num))
	case QWord:
		data := make([]byte, 8)
		for i := 0; i < 8; i++ {
			data[i] = byte(val.Num >> (8 * i))
		}
		return name + "=" + encodeHex("hex(b)", data, len(name)+1)
	case Binary:
		return name + "=" + encodeHex("hex", val.Data, len(name)+1)
	case ExpandString:
		return name + "=" + encodeHex("hex(2)", utf16Bytes(val.Str+"\x00"), len(name)+1)
	case MultiString:
		joined := strings.Join(val.Strs, "\x00") + "\x00\x00"
		if len(val.Strs) == 0 {
			joined = "\x00"
		}
		return name + "=" + encodeHex("hex(7)", utf16Bytes(joined), len(name)+1)
	default:
		return name + "=" + encodeHex("hex", val.Data, len(name)+1)
	}
}

// encodeHex renders comma-separated hex bytes, wrapping lines at roughly 80
// columns with a backslash continuation the way reg.exe does.
func encodeHex(prefix string, data []byte, indent int) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(":")
	col := indent + len(prefix) + 1

	for i, octet := range data {
		piece := fmt.Sprintf("%02x", octet)
		if i < len(data)-1 {
			piece += ","
		}
		if col+len(piece) > 78 {
			b.WriteString("\\\r\n  ")
			col = 2
		}
		b.WriteString(piece)
		col += len(piece)
	}
	return b.String()
}

func utf16Bytes(s string) []byte {
	codes := utf16.Encode([]rune(s))
	buf := make([]byte, 0, len(codes)*2)
	for _, c := range codes {
		buf = append(buf, byte(c), byte(c>>8))
	}
	return buf
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
