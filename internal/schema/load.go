package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/repokit/internal/record"
	"github.com/roach88/repokit/internal/validation"
)

// Error code constants.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeNoEntities  = "E007" // No entity struct
)

// Result contains the compiled schema and the rules of every entity.
type Result struct {
	Schema    *record.Schema
	Rules     map[string]validation.StaticRules
	Value     cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// RulesFor returns the rule provider of the named entity. Entities without
// rules get an empty provider.
func (r *Result) RulesFor(entity string) validation.RuleProvider {
	return r.Rules[entity]
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads and compiles the CUE package in dir.
func LoadDir(dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := buildError(value); err != nil {
		return nil, err
	}

	result, err := compileValue(value)
	if err != nil {
		return nil, err
	}
	result.FileCount = len(cueFiles)
	return result, nil
}

// CompileString compiles CUE source held in memory.
func CompileString(src string) (*Result, error) {
	value := cuecontext.New().CompileString(src)
	if err := buildError(value); err != nil {
		return nil, err
	}
	return compileValue(value)
}

// buildError reports a failed build, including conflicts nested below the
// top-level value.
func buildError(value cue.Value) error {
	err := value.Err()
	if err == nil {
		err = value.Validate()
	}
	if err != nil {
		return &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return nil
}

func compileValue(value cue.Value) (*Result, error) {
	entitiesVal := value.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoEntities, Message: "no entities found in schema"}
	}
	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating entities: %v", err)}
	}

	result := &Result{
		Rules: make(map[string]validation.StaticRules),
		Value: value,
	}
	var entities []*record.Entity
	for iter.Next() {
		e, rules, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, convertCompileError(err, "entity."+iter.Label())
		}
		entities = append(entities, e)
		result.Rules[e.Name] = rules
	}
	if len(entities) == 0 {
		return nil, &LoadError{Code: ErrCodeNoEntities, Message: "no entities found in schema"}
	}

	result.Schema, err = record.NewSchema(entities...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	if errs := Validate(result.Schema); len(errs) > 0 {
		return nil, &LoadError{Code: errs[0].Code, Message: errs[0].Error()}
	}
	return result, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compile error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeInvalidEntity,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
