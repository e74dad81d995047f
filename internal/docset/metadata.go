package docset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"howett.net/plist"
)

// Info.plist keys
const (
	plistBundleName          = "CFBundleName"
	plistDocSetFamily        = "DashDocSetFamily"
	plistDocSetKeyword       = "DashDocSetKeyword"
	plistDocSetPluginKeyword = "DashDocSetPluginKeyword"
	plistIndexFilePath       = "dashIndexFilePath"
	plistPlatformFamily      = "DocSetPlatformFamily"
	plistJavaScriptEnabled   = "isJavaScriptEnabled"
)

// Metadata is the optional meta.json written next to Contents/ by docset
// feeds. Its values take precedence over Info.plist.
type Metadata struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Version  string   `json:"version"`
	Revision Revision `json:"revision"`
	FeedURL  string   `json:"feed_url"`
	Extra    struct {
		IndexFilePath       string   `json:"indexFilePath"`
		Keywords            []string `json:"keywords"`
		IsJavaScriptEnabled *bool    `json:"isJavaScriptEnabled"`
	} `json:"extra"`
}

// Revision accepts both "3" and 3. Anything unparsable reads as 0.
type Revision int

func (r *Revision) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		*r = 0
		return nil
	}
	*r = Revision(n)
	return nil
}

// readMetadata reads meta.json from the bundle root. A missing file yields
// (nil, nil).
func readMetadata(bundle string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(bundle, "meta.json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read meta.json: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta.json: %w", err)
	}
	return &meta, nil
}

// infoPlist holds the decoded Contents/Info.plist dictionary.
type infoPlist map[string]any

// readInfoPlist reads Contents/Info.plist, falling back to the lowercase
// info.plist some generators produce. XML and binary formats are accepted.
func readInfoPlist(bundle string) (infoPlist, error) {
	var data []byte
	var err error
	for _, name := range []string{"Info.plist", "info.plist"} {
		data, err = os.ReadFile(filepath.Join(bundle, "Contents", name))
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read Info.plist: %w", err)
	}

	var dict map[string]any
	if _, err := plist.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("failed to parse Info.plist: %w", err)
	}
	return infoPlist(dict), nil
}

func (p infoPlist) lookupString(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	switch v := v.(type) {
	case string:
		return v, true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

func (p infoPlist) lookupBool(key string) (bool, bool) {
	switch v := p[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return strings.EqualFold(v, "yes"), true
		}
		return b, true
	case uint64:
		return v != 0, true
	case int64:
		return v != 0, true
	default:
		return false, false
	}
}
