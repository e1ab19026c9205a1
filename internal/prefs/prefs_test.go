package prefs

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/herdbook/internal/core"
)

func manualPreference() core.MappingPreference {
	return core.MappingPreference{
		MappingMode: core.MappingManual,
		FieldMapping: core.FieldMapping{
			"series": {Enabled: true, Source: core.ByName("Serie")},
			"rg":     {Enabled: true, Source: core.ByNameAt("RG", 1)},
			"dam":    {Enabled: false, Source: core.ByName("Mae")},
		},
		ExtraFields: []string{"Brinco"},
	}
}

// storeSuite runs the behavior every store shares. saveRaw writes an
// encoded entry without validation.
func storeSuite(t *testing.T, store core.PreferenceStore, saveRaw func(core.EntityType, string)) {
	ctx := context.Background()

	t.Run("missing entry", func(t *testing.T) {
		if p, ok, err := store.LoadMapping(ctx, core.EntityBirth); err != nil || ok {
			t.Errorf("LoadMapping() = %+v, %v, %v, want missing", p, ok, err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		want := manualPreference()
		if err := store.SaveMapping(ctx, core.EntityAnimal, want); err != nil {
			t.Fatalf("SaveMapping() error: %v", err)
		}
		got, ok, err := store.LoadMapping(ctx, core.EntityAnimal)
		if err != nil || !ok {
			t.Fatalf("LoadMapping() = %v, %v", ok, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("preference mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		if err := store.SaveMapping(ctx, core.EntityAnimal, core.MappingPreference{MappingMode: core.MappingAuto}); err != nil {
			t.Fatalf("SaveMapping() error: %v", err)
		}
		got, ok, _ := store.LoadMapping(ctx, core.EntityAnimal)
		if !ok || got.MappingMode != core.MappingAuto || len(got.FieldMapping) != 0 {
			t.Errorf("LoadMapping() = %+v, want the auto preference", got)
		}
	})

	t.Run("malformed entry reads as missing", func(t *testing.T) {
		saveRaw(core.EntityGestation, `{"mappingMode":`)
		if _, ok, err := store.LoadMapping(ctx, core.EntityGestation); err != nil || ok {
			t.Errorf("LoadMapping() = %v, %v, want missing", ok, err)
		}
		all, err := store.LoadMappings(ctx)
		if err != nil {
			t.Fatalf("LoadMappings() error: %v", err)
		}
		if _, ok := all[core.EntityGestation]; ok {
			t.Error("LoadMappings() should skip malformed entries")
		}
		if _, ok := all[core.EntityAnimal]; !ok {
			t.Error("LoadMappings() lost a valid entry")
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p := manualPreference()
				p.ExtraFields = []string{string(rune('A' + i))}
				if err := store.SaveMapping(ctx, core.EntityFIV, p); err != nil {
					t.Errorf("SaveMapping() error: %v", err)
				}
			}()
		}
		wg.Wait()
		got, ok, err := store.LoadMapping(ctx, core.EntityFIV)
		if err != nil || !ok {
			t.Fatalf("LoadMapping() = %v, %v", ok, err)
		}
		if len(got.ExtraFields) != 1 || len(got.FieldMapping) != 3 {
			t.Errorf("entry is a mix of writes: %+v", got)
		}
	})
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	storeSuite(t, m, func(et core.EntityType, data string) { m.SaveRaw(et, []byte(data)) })
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, "file::memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	storeSuite(t, s, func(et core.EntityType, data string) {
		if err := s.saveRaw(ctx, et, data); err != nil {
			t.Fatalf("saveRaw() error: %v", err)
		}
	})
}

func TestSQLite_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/prefs.db"

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	if err := s.SaveMapping(ctx, core.EntityFinancial, manualPreference()); err != nil {
		t.Fatalf("SaveMapping() error: %v", err)
	}
	s.Close()

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer reopened.Close()
	if _, ok, err := reopened.LoadMapping(ctx, core.EntityFinancial); err != nil || !ok {
		t.Errorf("LoadMapping() after reopen = %v, %v", ok, err)
	}
}

func TestOpenSQLite_EmptyDSN(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), " "); err == nil {
		t.Error("OpenSQLite() should reject an empty DSN")
	}
}
