package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/herdbook/internal/logging"
	"github.com/JonMunkholm/herdbook/internal/metrics"
)

// Validate runs one bounded batch through splitting, sniffing, mapping,
// normalization, validation and reconciliation.
//
// Row failures are collected in the result and never abort the batch. A
// structural failure (empty input, too few columns, an invalid manual
// mapping, an unreadable workbook) aborts before any row is processed: the
// returned result then carries it in Fatal and the same *StructuralError is
// returned as the error. Other errors (unknown entity, cancelled context)
// come back with a nil result.
func Validate(ctx context.Context, src Source, cfg ImportConfiguration) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	logger := logging.FromContext(ctx)

	result := &ImportResult{Mode: cfg.Mode(), Entity: cfg.EntityHint(), ValidatedAt: start}
	fail := func(serr *StructuralError) (*ImportResult, error) {
		result.Fatal = serr
		metrics.RecordStage(string(result.Entity), "validate", serr, time.Since(start))
		logger.Warn("import aborted", "entity", result.Entity, "code", serr.Code, "error", serr.Message)
		return result, serr
	}

	table, err := ReadSource(src)
	switch {
	case errors.Is(err, ErrEmptyInput):
		if result.Entity == "" {
			result.Entity = EntityAnimal
		}
		return fail(structural(ReasonEmptyInput, ErrEmptyInput, ""))
	case err != nil:
		if result.Entity == "" {
			result.Entity = EntityAnimal
		}
		return fail(&StructuralError{Code: ReasonUnreadable, Message: err.Error(), Err: err})
	}
	result.Delimiter = table.Delimiter

	sniff := Sniff(table, cfg.EntityHint())
	def, ok := Get(sniff.Entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, sniff.Entity)
	}
	logger = logger.With("entity", def.Type, "mode", cfg.Mode())
	logger.Debug("sniffed schema",
		"rule", sniff.Rule, "header_row", sniff.HeaderRow, "delimiter", table.Delimiter, "columns", len(sniff.Headers))

	result.Entity = def.Type
	result.SniffRule = sniff.Rule
	result.HeaderRow = sniff.HeaderRow

	data := table.Rows
	if sniff.HeaderRow {
		data = data[1:]
	}
	if table.Delimiter == DelimWhitespace && !sniff.HeaderRow && def.Splitter != nil {
		data = reshape(data, def.Splitter, len(def.Layout))
		sniff.Headers = PositionalHeaders(tableWidth(data))
	}
	result.Headers = sniff.Headers
	result.TotalRows = len(data)

	if len(data) == 0 {
		return fail(structural(ReasonEmptyInput, ErrEmptyInput, "no data rows after the header"))
	}

	minCols := def.MinColumns
	if table.Delimiter == DelimPipe {
		minCols = max(minCols, PipeMinColumns)
	}
	if width := len(sniff.Headers); width < minCols {
		return fail(structural(ReasonTooFewColumns, ErrTooFewColumns,
			"%s needs at least %d columns, got %d", def.Label, minCols, width))
	}

	res, err := ResolveMapping(def, sniff, data, cfg, logger)
	if err != nil {
		return fail(structural(ReasonInvalidMapping, err, ""))
	}
	result.Mapping = res
	result.Warnings = append(append([]MappingWarning(nil), res.Warnings...), UnmappedRequired(def, res, cfg)...)

	rowMin := 0
	if table.Delimiter == DelimPipe {
		rowMin = PipeMinColumns
	}
	outcomes := make([]ValidationOutcome, len(data))
	var g errgroup.Group
	g.SetLimit(cfg.Workers())
	for i, row := range data {
		g.Go(func() error {
			outcomes[i] = processRow(def, res, row, cfg, rowMin)
			return nil
		})
	}
	_ = g.Wait()

	rec := Reconcile(outcomes, def.Type, cfg.Mode())
	result.Accepted = rec.Accepted
	result.Errors = rec.Errors
	result.Merged = rec.Merged
	result.Fingerprint = Fingerprint(rec.Accepted)

	metrics.RecordStage(string(def.Type), "validate", nil, time.Since(start))
	metrics.RecordRows(string(def.Type), "accepted", len(rec.Accepted))
	metrics.RecordRows(string(def.Type), "rejected", len(rec.Errors))
	metrics.RecordRows(string(def.Type), "merged", rec.Merged)

	logger.Info("import validated",
		"rows", result.TotalRows,
		"accepted", len(result.Accepted),
		"rejected", len(result.Errors),
		"merged", result.Merged,
		"warnings", len(result.Warnings),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// processRow takes one row to its terminal outcome. It reads nothing but
// its arguments, so rows can be processed in any order.
func processRow(def *EntityDefinition, res *Resolution, row RawRow, cfg ImportConfiguration, minCells int) ValidationOutcome {
	out := ValidationOutcome{Row: row.Index, Raw: row.Cells}
	if len(row.Cells) < minCells {
		rerr := rowError(StageNormalize, ReasonTooFewColumns, "", "",
			"expected at least %d columns, got %d", minCells, len(row.Cells))
		rerr.Row, rerr.Raw = row.Index, row.Cells
		out.Error = rerr
		return out
	}

	values, rerr := NormalizeRow(def, res, row, cfg)
	if rerr != nil {
		out.Error = rerr
		return out
	}
	if rerr := ValidateRow(def, values, cfg); rerr != nil {
		out.Error = rerr
		return out
	}
	out.Accepted = true
	out.Record = def.Build(values)
	return out
}

// reshape applies the entity's trailing splitter to whitespace rows.
func reshape(rows []RawRow, splitter TrailingSplitter, width int) []RawRow {
	out := make([]RawRow, len(rows))
	for i, r := range rows {
		out[i] = RawRow{Index: r.Index, Cells: splitter.Split(r.Cells, width)}
	}
	return out
}

func tableWidth(rows []RawRow) int {
	t := RawTable{Rows: rows}
	return t.Width()
}
