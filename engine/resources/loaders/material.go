package loaders

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

// MaterialTextureNameMaxLength bounds the texture map names of a material.
const MaterialTextureNameMaxLength int = 512

type MaterialLoader struct{}

func (ml *MaterialLoader) Load(name string, data []byte, siblings SiblingReader) (interface{}, error) {
	return parseAMT(name, data)
}

func (ml *MaterialLoader) Unload(resource *resources.Resource) error {
	resource.Data = nil
	return nil
}

func parseAMT(name string, data []byte) (*resources.MaterialConfig, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	materialConfig := &resources.MaterialConfig{}

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		// Split key-value pairs by the first "=" sign
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			core.LogWarn("%s:%d: skipping invalid line %q", name, lineNumber, line)
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "version":
			// only version 1 exists, nothing to switch on yet
		case "name":
			materialConfig.Name = value
		case "shader":
			materialConfig.ShaderName = value
		case "diffuse_colour":
			colourValues := strings.Fields(value)
			if len(colourValues) != 4 {
				return nil, fmt.Errorf("%s:%d: invalid diffuse_colour, expected 4 values: %s", name, lineNumber, line)
			}
			for i, v := range colourValues {
				f, err := strconv.ParseFloat(v, 32)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: invalid diffuse_colour value: %s", name, lineNumber, v)
				}
				materialConfig.DiffuseColour[i] = float32(f)
			}
		case "shininess":
			shininess, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid shininess value: %s", name, lineNumber, value)
			}
			materialConfig.Shininess = float32(shininess)
		case "diffuse_map_name":
			materialConfig.DiffuseMapName = value
		case "specular_map_name":
			materialConfig.SpecularMapName = value
		case "normal_map_name":
			materialConfig.NormalMapName = value
		case "autorelease":
			autoRelease, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid autorelease value: %s", name, lineNumber, value)
			}
			materialConfig.AutoRelease = autoRelease
		default:
			core.LogWarn("Unknown key '%s' found in %s. Skipping...", key, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := validateMaterial(materialConfig); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return materialConfig, nil
}

func validateMaterial(material *resources.MaterialConfig) error {
	if material.Name == "" {
		return fmt.Errorf("material name is required")
	}

	if material.ShaderName == "" {
		return fmt.Errorf("shader name is required")
	}

	for _, c := range material.DiffuseColour {
		if c < 0.0 || c > 1.0 {
			return fmt.Errorf("diffuse_colour values must be between 0.0 and 1.0")
		}
	}

	if material.Shininess < 0 {
		return fmt.Errorf("shininess must be a non-negative value")
	}

	maps := map[string]string{
		"diffuse":  material.DiffuseMapName,
		"specular": material.SpecularMapName,
		"normal":   material.NormalMapName,
	}
	for use, name := range maps {
		if len(name) > MaterialTextureNameMaxLength {
			return fmt.Errorf("%s map name longer than %d characters", use, MaterialTextureNameMaxLength)
		}
	}

	return nil
}
