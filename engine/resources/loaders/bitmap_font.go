package loaders

import (
	"bytes"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

// BitmapFontLoader imports AngelCode .fnt descriptors. Page textures are
// only referenced by file name, the caller loads them as images.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(name string, data []byte, siblings SiblingReader) (interface{}, error) {
	desc, err := bmfont.ReadDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	outData := &resources.BitmapFontResourceData{
		Data: &resources.FontData{
			FontType:   resources.FontTypeBitmap,
			Face:       desc.Info.Face,
			Size:       uint32(desc.Info.Size),
			LineHeight: int32(desc.Common.LineHeight),
			Baseline:   int32(desc.Common.Base),
			AtlasSizeX: int32(desc.Common.ScaleW),
			AtlasSizeY: int32(desc.Common.ScaleH),
			Glyphs:     make([]*resources.FontGlyph, 0, len(desc.Chars)),
			Kernings:   make([]*resources.FontKerning, 0, len(desc.Kerning)),
		},
		Pages: make([]*resources.BitmapFontPage, 0, len(desc.Pages)),
	}

	for _, p := range desc.Pages {
		outData.Pages = append(outData.Pages, &resources.BitmapFontPage{
			ID:   int8(p.ID),
			File: p.File,
		})
	}

	for _, g := range desc.Chars {
		outData.Data.Glyphs = append(outData.Data.Glyphs, &resources.FontGlyph{
			Codepoint: int32(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}

	for p, k := range desc.Kerning {
		outData.Data.Kernings = append(outData.Data.Kernings, &resources.FontKerning{
			Codepoint0: int32(p.First),
			Codepoint1: int32(p.Second),
			Amount:     int16(k.Amount),
		})
	}

	return outData, nil
}

func (fl *BitmapFontLoader) Unload(resource *resources.Resource) error {
	if data, ok := resource.Data.(*resources.BitmapFontResourceData); ok {
		data.Data.Glyphs = nil
		data.Data.Kernings = nil
		data.Pages = nil
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
