package config

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var ErrNotFound = errors.New("field not found")

type Option func(options *options)

type options struct {
	withDefault  bool
	defaultValue interface{}
}

func getOptions(opts ...Option) *options {
	defaultOptions := &options{
		withDefault:  false,
		defaultValue: nil,
	}

	for _, opt := range opts {
		opt(defaultOptions)
	}

	return defaultOptions
}

func WithDefault(value interface{}) Option {
	return func(options *options) {
		options.withDefault = true
		options.defaultValue = value
	}
}

// GetInterface gets the given potentially nested field irrelevant of its type.
// This will recursively descend into submaps.
func GetInterface(config map[string]interface{}, field string, opts ...Option) (interface{}, error) {
	options := getOptions(opts...)
	i := strings.Index(field, ".")
	if i == -1 {
		element, ok := config[field]
		if options.withDefault && !ok {
			return options.defaultValue, nil
		}
		if !ok {
			return nil, ErrNotFound
		}
		return element, nil
	}

	element, ok := config[field[:i]]
	if options.withDefault && !ok {
		return options.defaultValue, nil
	}
	if !ok {
		return nil, ErrNotFound
	}
	submap, ok := element.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("%v should be a map, got: %v", field[:i], reflect.TypeOf(element))
	}

	out, err := GetInterface(submap, field[i+1:], opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't get interface from %v", field[i+1:])
	}

	return out, nil
}

// get looks the field up and converts it, falling back to the default on a missing field.
func get[T any](config map[string]interface{}, field string, convert func(interface{}) (T, error), opts ...Option) (T, error) {
	var zero T
	options := getOptions(opts...)
	out, err := GetInterface(config, field)
	if err != nil {
		if options.withDefault && errors.Is(err, ErrNotFound) {
			return options.defaultValue.(T), nil
		}
		return zero, errors.Wrapf(err, "couldn't get %s", field)
	}

	typed, err := convert(out)
	if err != nil {
		return zero, errors.Wrapf(err, "invalid %s", field)
	}
	return typed, nil
}

// GetInterfaceList gets a list from the given field.
func GetInterfaceList(config map[string]interface{}, field string, opts ...Option) ([]interface{}, error) {
	return get(config, field, func(out interface{}) ([]interface{}, error) {
		if out == nil {
			return nil, nil
		}
		list, ok := out.([]interface{})
		if !ok {
			return nil, errors.Errorf("expected list, got %v", reflect.TypeOf(out))
		}
		return list, nil
	}, opts...)
}

// GetMap gets a sub-map from the given field.
func GetMap(config map[string]interface{}, field string, opts ...Option) (map[string]interface{}, error) {
	return get(config, field, func(out interface{}) (map[string]interface{}, error) {
		outMap, ok := out.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("expected map, got %v", reflect.TypeOf(out))
		}
		return outMap, nil
	}, opts...)
}

// GetString gets a string from the given field.
func GetString(config map[string]interface{}, field string, opts ...Option) (string, error) {
	return get(config, field, func(out interface{}) (string, error) {
		outString, ok := out.(string)
		if !ok {
			return "", errors.Errorf("expected string, got %v", reflect.TypeOf(out))
		}
		return outString, nil
	}, opts...)
}

// GetStringList gets a string list from the given field. A single string is a one element list.
func GetStringList(config map[string]interface{}, field string, opts ...Option) ([]string, error) {
	return get(config, field, func(out interface{}) ([]string, error) {
		if single, ok := out.(string); ok {
			return []string{single}, nil
		}
		list, ok := out.([]interface{})
		if !ok {
			return nil, errors.Errorf("expected string list, got %v", reflect.TypeOf(out))
		}
		outStrings := make([]string, len(list))
		for i := range list {
			outString, ok := list[i].(string)
			if !ok {
				return nil, errors.Errorf("expected string slice, got %v at index %v", reflect.TypeOf(list[i]), i)
			}
			outStrings[i] = outString
		}
		return outStrings, nil
	}, opts...)
}

// GetInt gets an int from the given field. Numeric strings are accepted.
func GetInt(config map[string]interface{}, field string, opts ...Option) (int, error) {
	return get(config, field, cast.ToIntE, opts...)
}

// GetBool gets a bool from the given field.
func GetBool(config map[string]interface{}, field string, opts ...Option) (bool, error) {
	return get(config, field, func(out interface{}) (bool, error) {
		outBool, ok := out.(bool)
		if !ok {
			return false, errors.Errorf("expected bool, got %v", reflect.TypeOf(out))
		}
		return outBool, nil
	}, opts...)
}

// GetFloat64 gets a float64 from the given field.
func GetFloat64(config map[string]interface{}, field string, opts ...Option) (float64, error) {
	return get(config, field, cast.ToFloat64E, opts...)
}
