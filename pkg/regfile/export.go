// pkg/regfile/export.go - reads registry subtrees into the snapshot model.

package regfile

import (
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// rootKeys maps the accepted root key spellings to their handle and
// canonical long name.
var rootKeys = map[string]struct {
	key  registry.Key
	name string
}{
	"HKLM":                {registry.LOCAL_MACHINE, "HKEY_LOCAL_MACHINE"},
	"HKEY_LOCAL_MACHINE":  {registry.LOCAL_MACHINE, "HKEY_LOCAL_MACHINE"},
	"HKCU":                {registry.CURRENT_USER, "HKEY_CURRENT_USER"},
	"HKEY_CURRENT_USER":   {registry.CURRENT_USER, "HKEY_CURRENT_USER"},
	"HKCR":                {registry.CLASSES_ROOT, "HKEY_CLASSES_ROOT"},
	"HKEY_CLASSES_ROOT":   {registry.CLASSES_ROOT, "HKEY_CLASSES_ROOT"},
	"HKU":                 {registry.USERS, "HKEY_USERS"},
	"HKEY_USERS":          {registry.USERS, "HKEY_USERS"},
	"HKCC":                {registry.CURRENT_CONFIG, "HKEY_CURRENT_CONFIG"},
	"HKEY_CURRENT_CONFIG": {registry.CURRENT_CONFIG, "HKEY_CURRENT_CONFIG"},
}

// SplitRoot resolves the root of a key path like `HKCU\Control Panel\Mouse`
// into its handle, canonical root name, and remaining subpath.
func SplitRoot(path string) (registry.Key, string, string, error) {
	cleaned := strings.Trim(strings.ReplaceAll(path, "/", `\`), `\`)
	rootPart := cleaned
	subPath := ""
	if i := strings.Index(cleaned, `\`); i >= 0 {
		rootPart = cleaned[:i]
		subPath = cleaned[i+1:]
	}
	root, ok := rootKeys[strings.ToUpper(rootPart)]
	if !ok {
		return 0, "", "", fmt.Errorf("unrecognized registry root %q in %q", rootPart, path)
	}
	return root.key, root.name, subPath, nil
}

// KeyExists reports whether a registry key path can be opened for reading.
func KeyExists(path string) bool {
	root, _, subPath, err := SplitRoot(path)
	if err != nil {
		return false
	}
	k, err := registry.OpenKey(root, subPath, registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return false
	}
	k.Close()
	return true
}

// IsNotExist reports whether an export error means the key is absent,
// which backups treat as a skip rather than a failure.
func IsNotExist(err error) bool {
	return err == registry.ErrNotExist
}

// ExportKey walks a registry subtree and returns one Key per visited
// registry key, parent before children. Subkeys that cannot be opened are
// skipped; the subtree root being absent returns registry.ErrNotExist.
func ExportKey(path string) ([]Key, error) {
	root, rootName, subPath, err := SplitRoot(path)
	if err != nil {
		return nil, err
	}

	k, err := registry.OpenKey(root, subPath, registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		if err == registry.ErrNotExist {
			return nil, registry.ErrNotExist
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer k.Close()

	fullPath := rootName
	if subPath != "" {
		fullPath += `\` + subPath
	}

	var keys []Key
	if err := walkKey(k, fullPath, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func walkKey(k registry.Key, path string, out *[]Key) error {
	snap, err := readValues(k, path)
	if err != nil {
		return err
	}
	*out = append(*out, snap)

	subNames, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil
	}
	for _, name := range subNames {
		sub, err := registry.OpenKey(k, name, registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
		if err != nil {
			// Permission-restricted subkeys are common under HKLM; skip.
			continue
		}
		err = walkKey(sub, path+`\`+name, out)
		sub.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func readValues(k registry.Key, path string) (Key, error) {
	snap := Key{Path: path}

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return snap, nil
	}

	for _, name := range names {
		_, valType, err := k.GetValue(name, nil)
		if err != nil {
			continue
		}

		val := Value{Name: name}
		switch valType {
		case registry.SZ:
			val.Kind = String
			val.Str, _, err = k.GetStringValue(name)
		case registry.EXPAND_SZ:
			val.Kind = ExpandString
			val.Str, _, err = k.GetStringValue(name)
		case registry.MULTI_SZ:
			val.Kind = MultiString
			val.Strs, _, err = k.GetStringsValue(name)
		case registry.DWORD:
			val.Kind = DWord
			val.Num, _, err = k.GetIntegerValue(name)
		case registry.QWORD:
			val.Kind = QWord
			val.Num, _, err = k.GetIntegerValue(name)
		default:
			val.Kind = Binary
			val.Data, _, err = k.GetBinaryValue(name)
			if err != nil {
				// Not REG_BINARY; keep the raw bytes as-is.
				buf := make([]byte, 0)
				if n, _, rawErr := k.GetValue(name, nil); rawErr == nil {
					buf = make([]byte, n)
					_, _, rawErr = k.GetValue(name, buf)
					if rawErr == nil {
						val.Data = buf
						err = nil
					}
				}
			}
		}
		if err != nil {
			continue
		}
		snap.Values = append(snap.Values, val)
	}
	return snap, nil
}
