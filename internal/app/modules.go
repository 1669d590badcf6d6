package app

import (
	"io"

	"github.com/specialistvlad/measgrid/internal/registry"
	"github.com/specialistvlad/measgrid/modules/complex"
	"github.com/specialistvlad/measgrid/modules/env_vars"
	"github.com/specialistvlad/measgrid/modules/formula"
	"github.com/specialistvlad/measgrid/modules/loop"
	"github.com/specialistvlad/measgrid/modules/print"
	"github.com/specialistvlad/measgrid/modules/sleep"
)

// CoreModules is the definitive list of all task modules that are compiled
// into the measgrid binary.
func CoreModules(outW io.Writer, color bool) []registry.Module {
	return []registry.Module{
		&complex.Module{},
		&loop.Module{},
		&formula.Module{},
		&sleep.Module{},
		&print.Module{Out: outW, Color: color},
		&env_vars.Module{},
	}
}
