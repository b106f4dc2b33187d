package registry

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DecodeArgs populates an action's input struct from a step's argument
// expressions, evaluated against the job's evaluation context. Fields are
// matched by their `hcl:"name"` tag; a field tagged `hcl:"name,optional"`
// keeps its zero value when the argument is absent. Arguments that match no
// field are rejected so that typos surface as configuration errors instead
// of silently ignored settings.
func DecodeArgs(args map[string]hcl.Expression, evalCtx *hcl.EvalContext, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to struct, got %T", target)
	}
	elem := v.Elem()
	t := elem.Type()

	consumed := make(map[string]bool, len(args))
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("hcl")
		parts := strings.Split(tag, ",")
		name := parts[0]
		if name == "" || name == "-" {
			continue
		}
		optional := len(parts) > 1 && parts[1] == "optional"

		expr, ok := args[name]
		if !ok {
			if optional {
				continue
			}
			return fmt.Errorf("required argument '%s' is missing", name)
		}
		consumed[name] = true

		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return fmt.Errorf("evaluating argument '%s': %w", name, diags)
		}
		if val.IsNull() {
			if optional {
				continue
			}
			return fmt.Errorf("required argument '%s' is null", name)
		}

		wantType, err := gocty.ImpliedType(reflect.New(field.Type).Elem().Interface())
		if err != nil {
			return fmt.Errorf("argument '%s': unsupported Go type %s: %w", name, field.Type, err)
		}
		converted, err := convert.Convert(val, wantType)
		if err != nil {
			return fmt.Errorf("argument '%s': %w", name, err)
		}
		if err := gocty.FromCtyValue(converted, elem.Field(i).Addr().Interface()); err != nil {
			return fmt.Errorf("argument '%s': %w", name, err)
		}
	}

	for name := range args {
		if !consumed[name] {
			return fmt.Errorf("unsupported argument '%s'", name)
		}
	}
	return nil
}
