package fixtures

import (
	_ "embed"
)

//go:embed config/vecadd.yaml.template
var ConfigTemplate []byte
