package components

import "github.com/goliatone/go-reform/pkg/render"

// Component names of the default registry, one per control kind.
const (
	NameInput       = string(render.ControlInput)
	NameTextarea    = string(render.ControlTextArea)
	NameSelect      = string(render.ControlSelect)
	NameRadio       = string(render.ControlRadioGroup)
	NameCheckbox    = string(render.ControlCheckbox)
	NameUnsupported = string(render.ControlUnsupported)
)
