package loaders

import (
	"fmt"

	"github.com/spaghettifunk/anima-resources/engine/resources"
)

type BinaryLoader struct{}

func (bl *BinaryLoader) Load(name string, data []byte, siblings SiblingReader) (interface{}, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (bl *BinaryLoader) Unload(resource *resources.Resource) error {
	resource.Data = nil
	return nil
}

// ShaderLoader turns a SPIR-V stage into little-endian 32-bit words.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(name string, data []byte, siblings SiblingReader) (interface{}, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("shader %s: bytecode size %d is not a multiple of 4", name, len(data))
	}
	return bytesToBytecode(data), nil
}

func (sl *ShaderLoader) Unload(resource *resources.Resource) error {
	resource.Data = nil
	return nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
