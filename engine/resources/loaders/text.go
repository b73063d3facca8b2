package loaders

import (
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

type TextLoader struct{}

func (tl *TextLoader) Load(name string, data []byte, siblings SiblingReader) (interface{}, error) {
	return string(data), nil
}

func (tl *TextLoader) Unload(resource *resources.Resource) error {
	resource.Data = nil
	return nil
}
