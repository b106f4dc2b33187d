package app

import (
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/modules/env"
	"github.com/vk/pipegrid/modules/print"
	"github.com/vk/pipegrid/modules/shell"
)

// coreModules is the definitive list of action modules compiled into the
// pipegrid binary.
var coreModules = []registry.Module{
	&shell.Module{},
	&env.Module{},
	&print.Module{},
}
