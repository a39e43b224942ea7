// pkg/regfile/parse.go - parser for REGEDIT5 .reg files.

package regfile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Parse reads a .reg file produced by WriteReg, reg.exe, or regedit.
// UTF-16 input is detected by its byte order mark; anything else is
// treated as 8-bit text. Key deletion entries ([-path]) are skipped.
func Parse(data []byte) ([]Key, error) {
	text := decodeText(data)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	headerSeen := false
	var keys []Key
	var current *Key
	skipSection := false

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if !headerSeen {
			if line != Header && line != legacyHeader {
				return nil, fmt.Errorf("line %d: unrecognized registration file header %q", i+1, line)
			}
			headerSeen = true
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("line %d: unterminated key header", i+1)
			}
			path := line[1 : len(line)-1]
			if strings.HasPrefix(path, "-") {
				skipSection = true
				current = nil
				continue
			}
			skipSection = false
			keys = append(keys, Key{Path: path})
			current = &keys[len(keys)-1]
			continue
		}

		if skipSection {
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: value outside of any key", i+1)
		}

		// Re-join hex continuation lines.
		full := line
		for strings.HasSuffix(full, "\\") && i+1 < len(lines) {
			i++
			full = strings.TrimSuffix(full, "\\") + strings.TrimSpace(lines[i])
		}

		val, err := parseValue(full)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		current.Values = append(current.Values, val)
	}

	if !headerSeen {
		return nil, fmt.Errorf("empty registration file")
	}
	return keys, nil
}

// decodeText strips a UTF-16 BOM and decodes, or returns the input as-is.
func decodeText(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		codes := make([]uint16, 0, (len(data)-2)/2)
		for i := 2; i+1 < len(data); i += 2 {
			codes = append(codes, uint16(data[i])|uint16(data[i+1])<<8)
		}
		return string(utf16.Decode(codes))
	}
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		codes := make([]uint16, 0, (len(data)-2)/2)
		for i := 2; i+1 < len(data); i += 2 {
			codes = append(codes, uint16(data[i])<<8|uint16(data[i+1]))
		}
		return string(utf16.Decode(codes))
	}
	return string(data)
}

func parseValue(line string) (Value, error) {
	var val Value
	rest := line

	if strings.HasPrefix(rest, "@") {
		rest = rest[1:]
	} else if strings.HasPrefix(rest, `"`) {
		name, remainder, err := readQuoted(rest)
		if err != nil {
			return val, err
		}
		val.Name = name
		rest = remainder
	} else {
		return val, fmt.Errorf("malformed value line %q", line)
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "=") {
		return val, fmt.Errorf("missing '=' in value line %q", line)
	}
	rest = strings.TrimSpace(rest[1:])

	switch {
	case strings.HasPrefix(rest, `"`):
		str, remainder, err := readQuoted(rest)
		if err != nil {
			return val, err
		}
		if strings.TrimSpace(remainder) != "" {
			return val, fmt.Errorf("trailing data after string value: %q", remainder)
		}
		val.Kind = String
		val.Str = str
		return val, nil

	case strings.HasPrefix(rest, "dword:"):
		num, err := strconv.ParseUint(rest[len("dword:"):], 16, 32)
		if err != nil {
			return val, fmt.Errorf("bad dword value: %w", err)
		}
		val.Kind = DWord
		val.Num = num
		return val, nil

	case strings.HasPrefix(rest, "hex"):
		return parseHexValue(val, rest)

	default:
		return val, fmt.Errorf("unrecognized value payload %q", rest)
	}
}

func parseHexValue(val Value, rest string) (Value, error) {
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return val, fmt.Errorf("malformed hex value %q", rest)
	}
	typeSpec := rest[:colon]

	hexType := "0"
	if open := strings.Index(typeSpec, "("); open >= 0 {
		close := strings.Index(typeSpec, ")")
		if close < open {
			return val, fmt.Errorf("malformed hex type %q", typeSpec)
		}
		hexType = strings.ToLower(typeSpec[open+1 : close])
	} else if typeSpec != "hex" {
		return val, fmt.Errorf("malformed hex type %q", typeSpec)
	}

	var data []byte
	for _, piece := range strings.Split(rest[colon+1:], ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		octet, err := strconv.ParseUint(piece, 16, 8)
		if err != nil {
			return val, fmt.Errorf("bad hex byte %q: %w", piece, err)
		}
		data = append(data, byte(octet))
	}

	switch hexType {
	case "0", "3":
		val.Kind = Binary
		val.Data = data
	case "2":
		val.Kind = ExpandString
		val.Str = strings.TrimRight(decodeUTF16LE(data), "\x00")
	case "7":
		val.Kind = MultiString
		val.Strs = splitMulti(decodeUTF16LE(data))
	case "b":
		if len(data) != 8 {
			return val, fmt.Errorf("qword value must be 8 bytes, got %d", len(data))
		}
		val.Kind = QWord
		for i := 7; i >= 0; i-- {
			val.Num = val.Num<<8 | uint64(data[i])
		}
	case "4":
		if len(data) != 4 {
			return val, fmt.Errorf("dword hex value must be 4 bytes, got %d", len(data))
		}
		val.Kind = DWord
		val.Num = uint64(data[0]) | uint64(data[1])<<8 | uint64(data[2])<<16 | uint64(data[3])<<24
	default:
		val.Kind = Binary
		val.Data = data
	}
	return val, nil
}

func decodeUTF16LE(data []byte) string {
	codes := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		codes = append(codes, uint16(data[i])|uint16(data[i+1])<<8)
	}
	return string(utf16.Decode(codes))
}

func splitMulti(joined string) []string {
	joined = strings.TrimRight(joined, "\x00")
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\x00")
}

// readQuoted consumes a leading quoted string, honoring backslash escapes,
// and returns the unescaped content plus whatever follows the close quote.
func readQuoted(s string) (string, string, error) {
	if !strings.HasPrefix(s, `"`) {
		return "", "", fmt.Errorf("expected quoted string in %q", s)
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return unescapeString(s[1:i]), s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("unterminated quoted string in %q", s)
}
