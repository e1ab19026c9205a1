package schema

import (
	"github.com/JonMunkholm/herdbook/internal/core"
	"github.com/JonMunkholm/herdbook/internal/core/entities"
)

// AnimalColumns are the columns of the animals table.
var AnimalColumns = []Column{
	{Name: "series", Type: ColText, Key: true},
	{Name: "rg", Type: ColText, Key: true},
	{Name: "name", Type: ColText},
	{Name: "sex", Type: ColText},
	{Name: "birth_date", Type: ColDate},
	{Name: "age_months", Type: ColInteger},
	{Name: "breed", Type: ColText},
	{Name: "category", Type: ColText},
	{Name: "weight_kg", Type: ColNumeric},
	{Name: "sire", Type: ColText},
	{Name: "dam", Type: ColText},
	{Name: "maternal_grandsire", Type: ColText},
	{Name: "host_mother", Type: ColText},
	{Name: "extras", Type: ColJSON},
}

func animalArgs(rec core.Record) ([]any, error) {
	a, ok := rec.(*entities.Animal)
	if !ok {
		return nil, wrongRecord(core.EntityAnimal, rec)
	}
	return []any{
		key(a.Series), key(a.RG),
		text(a.Name), sex(a.Sex), date(a.BirthDate), integer(a.AgeMonths),
		text(a.Breed), text(a.Category), numeric(a.WeightKg),
		text(a.Sire), text(a.Dam), text(a.MaternalGrandsire), text(a.HostMother),
		extras(a.Extras),
	}, nil
}

func init() {
	Register(&Table{Entity: core.EntityAnimal, Name: "animals", Columns: AnimalColumns, Args: animalArgs})
}
