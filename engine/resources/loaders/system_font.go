package loaders

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/anima-resources/engine/resources"
)

// SystemFontLoader reads a .fontcfg file:
//
//	file=NotoSans.ttf
//	face=Noto Sans
//
// The font binary is resolved next to the config through the store.
type SystemFontLoader struct{}

func (fl *SystemFontLoader) Load(name string, data []byte, siblings SiblingReader) (interface{}, error) {
	rd := &resources.SystemFontResourceData{
		Fonts: []*resources.SystemFontFace{},
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "file=") {
			filename := strings.TrimSpace(strings.TrimPrefix(line, "file="))
			if siblings == nil {
				return nil, fmt.Errorf("system font %s: no reader for %s", name, filename)
			}
			fontBytes, err := siblings(filename)
			if err != nil {
				return nil, fmt.Errorf("system font %s: %w", name, err)
			}
			f, err := opentype.ParseCollection(fontBytes)
			if err != nil {
				return nil, fmt.Errorf("system font %s: %w", name, err)
			}
			rd.File = filename
			rd.FontBinary = f
			rd.BinarySize = uint64(len(fontBytes))
		} else if strings.HasPrefix(line, "face=") {
			face := strings.TrimSpace(strings.TrimPrefix(line, "face="))
			rd.Fonts = append(rd.Fonts, &resources.SystemFontFace{
				Name: face,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if rd.FontBinary == nil {
		return nil, fmt.Errorf("system font %s: missing file= entry", name)
	}

	return rd, nil
}

func (fl *SystemFontLoader) Unload(resource *resources.Resource) error {
	resource.Data = nil
	return nil
}
