// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagsFromParams creates a flag set bound to the tagged fields of
// params, a pointer to a struct. It panics on a malformed struct,
// which is a programming error.
//
//	var params struct {
//	    Event int  `flag:"event,e" desc:"event id"`
//	    JSON  bool `flag:"json" desc:"output as JSON"`
//	}
//	command.Flags = func() *pflag.FlagSet { return cli.FlagsFromParams("show", &params) }
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers a flag for each field of params tagged
// flag:"name" or flag:"name,n". desc:"..." is the help text and
// default:"..." the default, parsed for the field's type. Embedded
// structs are bound recursively.
//
// Supported types: string, bool, int, int64, float64, time.Duration,
// []string, []int.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(value.Elem(), flagSet)
}

func bindStruct(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()
	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStruct(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}
		tag := field.Tag.Get("flag")
		if tag == "" {
			continue
		}
		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}
		name, shorthand, _ := strings.Cut(tag, ",")
		if err := bindField(fieldValue.Addr().Interface(), flagSet, name, shorthand, field.Tag.Get("desc"), field.Tag.Get("default")); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

func bindField(pointer any, flagSet *pflag.FlagSet, name, shorthand, description, fallback string) error {
	var err error
	switch target := pointer.(type) {
	case *string:
		flagSet.StringVarP(target, name, shorthand, fallback, description)
	case *bool:
		var value bool
		if value, err = parseDefault(fallback, strconv.ParseBool); err == nil {
			flagSet.BoolVarP(target, name, shorthand, value, description)
		}
	case *int:
		var value int
		if value, err = parseDefault(fallback, strconv.Atoi); err == nil {
			flagSet.IntVarP(target, name, shorthand, value, description)
		}
	case *int64:
		var value int64
		if value, err = parseDefault(fallback, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }); err == nil {
			flagSet.Int64VarP(target, name, shorthand, value, description)
		}
	case *float64:
		var value float64
		if value, err = parseDefault(fallback, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }); err == nil {
			flagSet.Float64VarP(target, name, shorthand, value, description)
		}
	case *time.Duration:
		var value time.Duration
		if value, err = parseDefault(fallback, time.ParseDuration); err == nil {
			flagSet.DurationVarP(target, name, shorthand, value, description)
		}
	case *[]string:
		var value []string
		if fallback != "" {
			value = strings.Split(fallback, ",")
		}
		flagSet.StringSliceVarP(target, name, shorthand, value, description)
	case *[]int:
		var value []int
		for _, part := range strings.FieldsFunc(fallback, func(r rune) bool { return r == ',' }) {
			number, parseErr := strconv.Atoi(part)
			if parseErr != nil {
				err = parseErr
				break
			}
			value = append(value, number)
		}
		if err == nil {
			flagSet.IntSliceVarP(target, name, shorthand, value, description)
		}
	default:
		return fmt.Errorf("unsupported type %T for flag --%s", pointer, name)
	}
	if err != nil {
		return fmt.Errorf("default for --%s: %w", name, err)
	}
	return nil
}

func parseDefault[T any](s string, parse func(string) (T, error)) (T, error) {
	var zero T
	if s == "" {
		return zero, nil
	}
	return parse(s)
}
