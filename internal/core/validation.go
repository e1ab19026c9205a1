package core

// validation.go applies business rules to normalized rows.
//
// Required fields depend on the entity type and the operation mode; the
// field-selection set can drop non-identity fields from that list. Entity
// rules then check cross-field consistency and mode specific conditions
// such as the reconcile-update "no update target" guard. Every failure is
// row scoped and carries a ReasonCode.

import (
	"fmt"
	"strings"
)

// WarnUnmappedRequired flags required fields with no source column.
const WarnUnmappedRequired = "unmapped_required"

// ValidateRow checks one normalized row and returns the first failure.
func ValidateRow(def *EntityDefinition, row *RowValues, cfg ImportConfiguration) *RowError {
	mode := cfg.Mode()
	for _, name := range def.RequiredFields(mode, cfg) {
		if row.Fields.Has(name) {
			continue
		}
		var rerr *RowError
		if raw, rejected := row.Rejected[name]; rejected {
			rerr = rejectedValue(def, name, raw)
		} else {
			rerr = rowError(StageValidate, ReasonMissingRequired, name, "", "missing required field %s", name)
		}
		rerr.Row, rerr.Raw = row.Row, row.Raw
		return rerr
	}

	for _, rule := range def.Rules {
		if rerr := rule(row, mode); rerr != nil {
			rerr.Row, rerr.Raw = row.Row, row.Raw
			if rerr.Stage == "" {
				rerr.Stage = StageValidate
			}
			return rerr
		}
	}
	return nil
}

func rejectedValue(def *EntityDefinition, name, raw string) *RowError {
	spec, _ := def.Field(name)
	if spec.Type == FieldSex {
		return rowError(StageValidate, ReasonInvalidSex, name, raw, "invalid sex code %q", raw)
	}
	return rowError(StageValidate, ReasonInvalidValue, name, raw, "invalid enum value %q for %s", raw, name)
}

// RequireAny returns a rule that fails with code unless at least one of
// fields holds a value. Only the listed modes are checked.
func RequireAny(code ReasonCode, modes []Mode, fields ...string) RuleFunc {
	return func(row *RowValues, mode Mode) *RowError {
		if !containsMode(modes, mode) {
			return nil
		}
		for _, f := range fields {
			if row.Fields.Has(f) {
				return nil
			}
		}
		return NewRuleError(code, "", "", "no update target: %s mode needs at least one of %s",
			mode, strings.Join(fields, ", "))
	}
}

// NotBefore returns a rule requiring later >= earlier when both are set.
func NotBefore(later, earlier string) RuleFunc {
	return func(row *RowValues, _ Mode) *RowError {
		l, e := row.Fields.Date(later), row.Fields.Date(earlier)
		if l == nil || e == nil || !l.Before(*e) {
			return nil
		}
		return NewRuleError(ReasonInconsistent, later, l.String(),
			"%s %s is before %s %s", later, l, earlier, e)
	}
}

// RequiresField returns a rule demanding other whenever field is set.
func RequiresField(field, other string) RuleFunc {
	return func(row *RowValues, _ Mode) *RowError {
		if row.Fields.Has(field) && !row.Fields.Has(other) {
			return NewRuleError(ReasonInconsistent, other, "",
				"%s is set but %s is missing", field, other)
		}
		return nil
	}
}

func containsMode(modes []Mode, m Mode) bool {
	if len(modes) == 0 {
		return true
	}
	for _, x := range modes {
		if x == m {
			return true
		}
	}
	return false
}

// UnmappedRequired lists required fields that no column feeds. Rows will
// fail on them, so the preview reports them once up front.
func UnmappedRequired(def *EntityDefinition, res *Resolution, cfg ImportConfiguration) []MappingWarning {
	var out []MappingWarning
	for _, name := range def.RequiredFields(cfg.Mode(), cfg) {
		if _, ok := res.Columns[name]; ok {
			continue
		}
		if composite(def, name) {
			continue
		}
		out = append(out, MappingWarning{
			Code:    WarnUnmappedRequired,
			Message: fmt.Sprintf("missing required column for %s", name),
		})
	}
	return out
}

func composite(def *EntityDefinition, name string) bool {
	for _, c := range def.Composites {
		if c.Target == name {
			return true
		}
	}
	return false
}
