package regfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBasicKey(t *testing.T) {
	keys := []Key{{
		Path: `HKEY_CURRENT_USER\Control Panel\Mouse`,
		Values: []Value{
			{Name: "MouseSensitivity", Kind: String, Str: "10"},
			{Name: "DoubleClickSpeed", Kind: String, Str: "500"},
			{Name: "", Kind: String, Str: "default"},
		},
	}}

	got := Encode(keys)
	want := "Windows Registry Editor Version 5.00\r\n" +
		"\r\n" +
		"[HKEY_CURRENT_USER\\Control Panel\\Mouse]\r\n" +
		"@=\"default\"\r\n" +
		"\"DoubleClickSpeed\"=\"500\"\r\n" +
		"\"MouseSensitivity\"=\"10\"\r\n"
	assert.Equal(t, want, got)
}

func TestEncodeDWord(t *testing.T) {
	keys := []Key{{
		Path:   `HKEY_CURRENT_USER\Test`,
		Values: []Value{{Name: "Flag", Kind: DWord, Num: 1}},
	}}
	assert.Contains(t, Encode(keys), `"Flag"=dword:00000001`)
}

func TestEncodeEscapesPathsAndQuotes(t *testing.T) {
	keys := []Key{{
		Path: `HKEY_CURRENT_USER\Test`,
		Values: []Value{
			{Name: "Path", Kind: String, Str: `C:\Windows\web`},
			{Name: "Quoted", Kind: String, Str: `say "hi"`},
		},
	}}
	got := Encode(keys)
	assert.Contains(t, got, `"Path"="C:\\Windows\\web"`)
	assert.Contains(t, got, `"Quoted"="say \"hi\""`)
}

func TestEncodeHexWrapsLongValues(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i)
	}
	keys := []Key{{
		Path:   `HKEY_CURRENT_USER\Test`,
		Values: []Value{{Name: "Blob", Kind: Binary, Data: data}},
	}}

	got := Encode(keys)
	assert.Contains(t, got, "\\\r\n  ")
	for _, line := range strings.Split(got, "\r\n") {
		assert.LessOrEqual(t, len(line), 80)
	}
}

func TestWriteRegEmitsUTF16LEWithBOM(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReg(&buf, []Key{{Path: `HKEY_CURRENT_USER\Test`}})
	require.NoError(t, err)

	data := buf.Bytes()
	require.GreaterOrEqual(t, len(data), 4)
	assert.Equal(t, byte(0xFF), data[0])
	assert.Equal(t, byte(0xFE), data[1])
	// "W" then a zero high byte: little-endian UTF-16.
	assert.Equal(t, byte('W'), data[2])
	assert.Equal(t, byte(0), data[3])
}

func TestRoundTrip(t *testing.T) {
	keys := []Key{{
		Path: `HKEY_CURRENT_USER\Software\Melody\Test`,
		Values: []Value{
			{Name: "", Kind: String, Str: "default value"},
			{Name: "Str", Kind: String, Str: `C:\path with "quotes"`},
			{Name: "Num", Kind: DWord, Num: 0xDEADBEEF},
			{Name: "Big", Kind: QWord, Num: 0x0123456789ABCDEF},
			{Name: "Blob", Kind: Binary, Data: []byte{0x00, 0x01, 0xFF}},
			{Name: "Expand", Kind: ExpandString, Str: `%SystemRoot%\system32`},
			{Name: "Multi", Kind: MultiString, Strs: []string{"one", "two"}},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteReg(&buf, keys))

	parsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, keys[0].Path, parsed[0].Path)

	byName := make(map[string]Value)
	for _, val := range parsed[0].Values {
		byName[val.Name] = val
	}
	assert.Equal(t, "default value", byName[""].Str)
	assert.Equal(t, `C:\path with "quotes"`, byName["Str"].Str)
	assert.Equal(t, uint64(0xDEADBEEF), byName["Num"].Num)
	assert.Equal(t, uint64(0x0123456789ABCDEF), byName["Big"].Num)
	assert.Equal(t, []byte{0x00, 0x01, 0xFF}, byName["Blob"].Data)
	assert.Equal(t, `%SystemRoot%\system32`, byName["Expand"].Str)
	assert.Equal(t, []string{"one", "two"}, byName["Multi"].Strs)
}

func TestParsePlainTextWithContinuations(t *testing.T) {
	input := "Windows Registry Editor Version 5.00\r\n" +
		"\r\n" +
		"[HKEY_CURRENT_USER\\Test]\r\n" +
		"\"Blob\"=hex:00,01,02,03,\\\r\n" +
		"  04,05\r\n"

	keys, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Len(t, keys[0].Values, 1)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5}, keys[0].Values[0].Data)
}

func TestParseSkipsDeletionSections(t *testing.T) {
	input := "Windows Registry Editor Version 5.00\n" +
		"\n" +
		"[-HKEY_CURRENT_USER\\Gone]\n" +
		"\n" +
		"[HKEY_CURRENT_USER\\Kept]\n" +
		"\"a\"=\"b\"\n"

	keys, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, `HKEY_CURRENT_USER\Kept`, keys[0].Path)
}

func TestParseAcceptsLegacyHeader(t *testing.T) {
	input := "REGEDIT4\n[HKEY_CURRENT_USER\\Test]\n\"a\"=\"b\"\n"
	keys, err := Parse([]byte(input))
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"wrong header":    "Some other file\n[HKEY_CURRENT_USER\\x]\n",
		"value before key": "Windows Registry Editor Version 5.00\n\"a\"=\"b\"\n",
		"bad dword":       "Windows Registry Editor Version 5.00\n[HKEY_CURRENT_USER\\x]\n\"a\"=dword:zz\n",
		"empty":           "",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestSplitRoot(t *testing.T) {
	_, rootName, rest, err := SplitRoot(`HKCU\Control Panel\Mouse`)
	require.NoError(t, err)
	assert.Equal(t, "HKEY_CURRENT_USER", rootName)
	assert.Equal(t, `Control Panel\Mouse`, rest)

	_, _, _, err = SplitRoot(`NOPE\Whatever`)
	assert.Error(t, err)
}
