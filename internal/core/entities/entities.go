// Package entities registers the herd record types with the core registry.
// Import it for its side effect wherever the engine runs.
package entities

import (
	"maps"

	"github.com/JonMunkholm/herdbook/internal/core"
)

func init() {
	registerAnimal()
	registerInsemination()
	registerFIV()
	registerBirth()
	registerGestation()
	registerFinancial()
}

// dateKey renders an event date for natural keys.
func dateKey(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func dateOrZero(v core.Values, name string) core.Date {
	if d := v.Date(name); d != nil {
		return *d
	}
	return core.Date{}
}

func extras(row *core.RowValues) map[string]string {
	if len(row.Extras) == 0 {
		return nil
	}
	return maps.Clone(row.Extras)
}
