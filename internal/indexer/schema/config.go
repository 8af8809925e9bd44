package schema

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

// FromConfig builds a schema from its YAML declaration.
func FromConfig(cfg config.SchemaConfig) (*Schema, error) {
	fields := make([]Field, 0, len(cfg.Fields))
	for _, fc := range cfg.Fields {
		f := Field{Name: fc.Name, Weight: fc.Weight}
		switch strings.ToLower(fc.Type) {
		case "", "text":
			f.Type = TypeText
		case "numeric":
			f.Type = TypeNumeric
		default:
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "field %q: unknown type %q", fc.Name, fc.Type)
		}
		if fc.Sortable {
			f.Options |= Sortable
		}
		if fc.NoStem {
			f.Options |= NoStem
		}
		if fc.NoIndex {
			f.Options |= NoIndex
		}
		fields = append(fields, f)
	}
	opts := Options{
		NoOffsets: cfg.NoOffsets,
		NoFields:  cfg.NoFields,
		Stopwords: cfg.Stopwords,
	}
	return New(cfg.Name, opts, fields...)
}
