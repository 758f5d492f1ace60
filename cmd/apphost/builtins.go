package main

import (
	"fmt"
	"strings"

	"github.com/dshills/apphost/internal/loader"
	"github.com/dshills/apphost/internal/resource"
)

// builtins are the resources compiled into the binary. They are declared
// like any other resource, e.g. resources = ["apphost/upper"].
func builtins() *loader.Static {
	return loader.NewStatic(map[string]loader.Module{
		"apphost/upper": &resource.ConverterDef{
			ConverterName: "upper",
			Converter: resource.ConverterFunc(func(v any, _ ...any) (any, error) {
				return strings.ToUpper(fmt.Sprint(v)), nil
			}),
		},
		"apphost/lower": &resource.ConverterDef{
			ConverterName: "lower",
			Converter: resource.ConverterFunc(func(v any, _ ...any) (any, error) {
				return strings.ToLower(fmt.Sprint(v)), nil
			}),
		},
	})
}
