package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/herdbook/internal/core"
)

// importRequest is a parsed POST /api/imports call.
//
// Options come from form fields for multipart uploads and from the query
// string otherwise:
//
//	entity       animal, insemination, fiv, birth, gestation, financial (empty: sniff)
//	mode         create, overwrite, update (empty: server default)
//	mappingMode  auto or manual (empty: stored preference, then auto)
//	mapping      JSON object of field -> {"enabled": bool, "source": "RG|1"}
//	disabled     comma separated field names
//	extra        comma separated source columns carried verbatim
type importRequest struct {
	Source  core.Source
	Options []core.ConfigOption
}

var errNoInput = errors.New("empty input: send a file field, a text field or a request body")

const multipartMemory = 8 << 20

// parseImportRequest reads the payload and options of an import call. The
// body is bounded by limit bytes.
func parseImportRequest(w http.ResponseWriter, r *http.Request, limit int64) (*importRequest, error) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		src    core.Source
		values func(string) string
	)

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, bodyError(err, limit)
		}
		values = r.FormValue
		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close()
			data, err := core.ReadInput(file, limit)
			if err != nil {
				return nil, bodyError(err, limit)
			}
			src = core.Source{Name: header.Filename, Data: data}
		case errors.Is(err, http.ErrMissingFile):
			src = core.TextSource(r.FormValue("text"))
		default:
			return nil, fmt.Errorf("read upload: %w", err)
		}

	default:
		values = r.URL.Query().Get
		data, err := core.ReadInput(r.Body, limit)
		if err != nil {
			return nil, bodyError(err, limit)
		}
		src = core.Source{Name: r.URL.Query().Get("filename"), Data: data}
	}

	if len(strings.TrimSpace(string(src.Data))) == 0 && !src.IsWorkbook() {
		return nil, errNoInput
	}

	opts, err := importOptions(values)
	if err != nil {
		return nil, err
	}
	return &importRequest{Source: src, Options: opts}, nil
}

// importOptions turns request parameters into configuration options.
func importOptions(get func(string) string) ([]core.ConfigOption, error) {
	var opts []core.ConfigOption

	et, err := core.ParseEntityType(get("entity"))
	if err != nil {
		return nil, err
	}
	if et != "" {
		opts = append(opts, core.WithEntity(et))
	}

	if raw := strings.TrimSpace(get("mode")); raw != "" {
		mode, err := core.ParseMode(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithMode(mode))
	}

	switch mm := core.MappingMode(strings.ToLower(strings.TrimSpace(get("mappingMode")))); mm {
	case "":
	case core.MappingAuto:
		opts = append(opts, core.WithAutoMapping())
	case core.MappingManual:
		var mapping core.FieldMapping
		if err := json.Unmarshal([]byte(get("mapping")), &mapping); err != nil {
			return nil, fmt.Errorf("%w: mapping is not valid JSON: %v", core.ErrInvalidMapping, err)
		}
		if len(mapping) == 0 {
			return nil, fmt.Errorf("%w: manual mapping has no fields", core.ErrInvalidMapping)
		}
		opts = append(opts, core.WithManualMapping(mapping))
	default:
		return nil, fmt.Errorf("%w: mapping mode %q", core.ErrInvalidMapping, mm)
	}

	if disabled := splitList(get("disabled")); len(disabled) > 0 {
		opts = append(opts, core.WithDisabledFields(disabled...))
	}
	if extra := splitList(get("extra")); len(extra) > 0 {
		opts = append(opts, core.WithExtraFields(extra...))
	}
	return opts, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// bodyError reports an oversized body as ErrInputTooLarge.
func bodyError(err error, limit int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, core.ErrInputTooLarge) {
		return fmt.Errorf("%w: more than %d bytes", core.ErrInputTooLarge, limit)
	}
	return fmt.Errorf("read request body: %w", err)
}
