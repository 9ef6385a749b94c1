// Package lexicon validates record payloads against per-collection CUE schemas.
package lexicon

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pkg/errors"

	"github.com/totegamma/repoindex/internal/domain"
)

//go:embed schemas.cue
var schemaSource string

const schemaNotFound = "schema not found"

// Validator checks untyped payloads. A cue.Context is not safe for concurrent
// use, so every evaluation holds mu.
type Validator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// New compiles the bundled schemas.
func New() (*Validator, error) {
	return NewFromSource(schemaSource)
}

// NewFromSource compiles schemas from CUE source that declares a top level
// `collections` struct mapping collection names to definitions.
func NewFromSource(src string) (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(src, cue.Filename("schemas.cue"))
	if err := root.Err(); err != nil {
		return nil, errors.Wrap(err, "compile schemas")
	}

	collections := root.LookupPath(cue.ParsePath("collections"))
	if !collections.Exists() {
		return nil, fmt.Errorf("schemas: no collections declared")
	}

	iter, err := collections.Fields(cue.Definitions(false))
	if err != nil {
		return nil, errors.Wrap(err, "iterate collections")
	}

	schemas := make(map[string]cue.Value)
	for iter.Next() {
		schemas[iter.Selector().Unquoted()] = iter.Value()
	}

	return &Validator{
		ctx:     ctx,
		schemas: schemas,
	}, nil
}

func (v *Validator) Has(collection string) bool {
	_, ok := v.schemas[collection]
	return ok
}

func (v *Validator) Validate(collection string, obj map[string]any) domain.ValidationResult {
	v.mu.Lock()
	defer v.mu.Unlock()

	schema, ok := v.schemas[collection]
	if !ok {
		return domain.ValidationResult{
			Valid:   false,
			Code:    domain.ValidationIncompatible,
			Message: schemaNotFound,
		}
	}

	if obj == nil {
		return domain.ValidationResult{
			Valid:   false,
			Code:    domain.ValidationInvalid,
			Message: "record must be an object",
		}
	}

	value := v.ctx.Encode(obj)
	if err := value.Err(); err != nil {
		return invalid(err)
	}

	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return invalid(err)
	}

	return domain.ValidationOK()
}

func invalid(err error) domain.ValidationResult {
	msg := err.Error()
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		msg = cueerrors.Details(errs[0], nil)
	}
	return domain.ValidationResult{
		Valid:   false,
		Code:    domain.ValidationInvalid,
		Message: msg,
	}
}
