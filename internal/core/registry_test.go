package core

import (
	"strings"
	"testing"
)

func expectPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", want)
		}
		if msg, _ := r.(string); !strings.Contains(msg, want) {
			t.Errorf("panic = %v, want it to contain %q", r, want)
		}
	}()
	fn()
}

func TestRegister_Duplicate(t *testing.T) {
	withTestRegistry(t)
	expectPanic(t, "already registered", func() { Register(testAnimalDefinition()) })
}

func TestRegister_Incomplete(t *testing.T) {
	withTestRegistry(t)

	noBuild := testAnimalDefinition()
	noBuild.Type = EntityBirth
	noBuild.Build = nil
	expectPanic(t, "no Build func", func() { Register(noBuild) })

	badLayout := testAnimalDefinition()
	badLayout.Type = EntityFIV
	badLayout.Layout = append(badLayout.Layout, "coat_color")
	expectPanic(t, `unknown field "coat_color"`, func() { Register(badLayout) })
}

func TestRegistry_GetAndAll(t *testing.T) {
	gestation := testAnimalDefinition()
	gestation.Type = EntityGestation
	withTestRegistry(t, testAnimalDefinition(), gestation)

	if EntityCount() != 2 {
		t.Errorf("EntityCount() = %d, want 2", EntityCount())
	}
	if def, ok := Get(EntityGestation); !ok || def != gestation {
		t.Errorf("Get(gestation) = %v, %v", def, ok)
	}
	if _, ok := Get(EntityFinancial); ok {
		t.Error("Get(financial) should miss")
	}

	all := All()
	if len(all) != 2 || all[0].Type != EntityGestation || all[1].Type != EntityAnimal {
		t.Errorf("All() order = %v, want gestation before animal", all)
	}
}

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		in      string
		want    EntityType
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "Animal", want: EntityAnimal},
		{in: "gestation_diagnosis", want: EntityGestation},
		{in: "In-Vitro Fertilization", want: EntityFIV},
		{in: "DG", want: EntityGestation},
		{in: "vaccination", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEntityType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEntityType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEntityType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeCreate, ModeOverwrite, ModeReconcileUpdate} {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, err)
		}
	}
	if got, err := ParseMode(""); err != nil || got != ModeCreate {
		t.Errorf("ParseMode(\"\") = %q, %v, want create", got, err)
	}
	if _, err := ParseMode("append"); err == nil {
		t.Error("ParseMode(append) should fail")
	}
	if !ModeReconcileUpdate.MergesDuplicates() || ModeOverwrite.MergesDuplicates() {
		t.Error("only reconcile-update merges duplicates")
	}
}
