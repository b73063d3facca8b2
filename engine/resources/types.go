package resources

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Text resource type. */
	ResourceTypeText ResourceType = iota
	/** @brief Binary resource type. */
	ResourceTypeBinary
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Material resource type. */
	ResourceTypeMaterial
	/** @brief Shader resource type (compiled SPIR-V stage). */
	ResourceTypeShader
	/** @brief Mesh resource type (kept as raw bytes until a mesh loader exists). */
	ResourceTypeMesh
	/** @brief Bitmap font resource type. */
	ResourceTypeBitmapFont
	/** @brief System font resource type. */
	ResourceTypeSystemFont
	/** @brief Custom resource type. Used by loaders outside the core engine. */
	ResourceTypeCustom
	/** @brief No known type, returned for unrecognised extensions. */
	ResourceTypeNone ResourceType = -1
)

var resourceTypeNames = map[ResourceType]string{
	ResourceTypeText:       "text",
	ResourceTypeBinary:     "binary",
	ResourceTypeImage:      "image",
	ResourceTypeMaterial:   "material",
	ResourceTypeShader:     "shader",
	ResourceTypeMesh:       "mesh",
	ResourceTypeBitmapFont: "bitmap_font",
	ResourceTypeSystemFont: "system_font",
	ResourceTypeCustom:     "custom",
	ResourceTypeNone:       "none",
}

func (t ResourceType) String() string {
	if n, ok := resourceTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("ResourceType(%d)", int(t))
}

// ParseResourceType is the inverse of ResourceType.String.
func ParseResourceType(s string) (ResourceType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, n := range resourceTypeNames {
		if n == s && t != ResourceTypeNone {
			return t, nil
		}
	}
	return ResourceTypeNone, fmt.Errorf("unknown resource type %q", s)
}

/**
 * @brief A generic structure for a loaded asset. The store that produced it
 * keeps ownership; callers only hold the reference.
 */
type Resource struct {
	/** @brief Unique identifier of this loaded instance. */
	ID uuid.UUID
	/** @brief The name of the resource (file name without extension). */
	Name string
	/** @brief The full path the resource was read from. */
	FullPath string
	/** @brief The type the resource was decoded as. */
	Type ResourceType
	/** @brief Name of the store which satisfied the request. */
	Origin string
	/** @brief The size of the raw resource data in bytes. */
	DataSize uint64
	/** @brief The decoded resource data. */
	Data interface{}
}

// NewResource stamps a fresh ID on the decoded data.
func NewResource(name, fullPath string, resourceType ResourceType, origin string, size int, data interface{}) *Resource {
	return &Resource{
		ID:       uuid.New(),
		Name:     name,
		FullPath: fullPath,
		Type:     resourceType,
		Origin:   origin,
		DataSize: uint64(size),
		Data:     data,
	}
}
