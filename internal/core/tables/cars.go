// Package tables registers every table definition with the core registry.
// Import it for side effects before building statements.
package tables

import (
	"github.com/JonMunkholm/carbot/internal/core"
	"github.com/JonMunkholm/carbot/internal/schema"
)

func init() {
	registerCars()
}

func registerCars() {
	core.Register(core.TableDefinition{
		Name:          schema.CarsTable,
		Columns:       schema.CarColumns,
		CreatedColumn: schema.ColCreateDate,
		UpdatedColumn: schema.ColUpdateDate,
	})
}
