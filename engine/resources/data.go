package resources

import "golang.org/x/image/font/sfnt"

/**
 * @brief A structure to hold image resource data.
 */
type ImageResourceData struct {
	/** @brief The number of channels. */
	ChannelCount uint8
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image, RGBA8 row-major. */
	Pixels []uint8
}

/**
 * @brief Material configuration loaded from an .amt file.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string
	/** @brief The shader the material is drawn with. */
	ShaderName string
	/** @brief Indicates if the material should be automatically released when no references to it remain. */
	AutoRelease bool
	/** @brief The diffuse colour of the material, RGBA in [0,1]. */
	DiffuseColour [4]float32
	/** @brief The shininess of the material. */
	Shininess float32
	/** @brief The diffuse map name. */
	DiffuseMapName string
	/** @brief The specular map name. */
	SpecularMapName string
	/** @brief The normal map name. */
	NormalMapName string
}

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

type FontType int

const (
	FontTypeBitmap FontType = iota
	FontTypeSystem
)

type FontData struct {
	FontType   FontType
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     []*FontGlyph
	Kernings   []*FontKerning
}

type BitmapFontPage struct {
	ID   int8
	File string
}

type BitmapFontResourceData struct {
	Data  *FontData
	Pages []*BitmapFontPage
}

type SystemFontFace struct {
	Name string
}

type SystemFontResourceData struct {
	// File is the font binary named by the config, relative to the config.
	File       string
	Fonts      []*SystemFontFace
	BinarySize uint64
	FontBinary *sfnt.Collection
}
