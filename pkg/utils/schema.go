package utils

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// ToJSONSchema converts a struct to an inlined JSON schema.
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// GetKeychainFields lists the json names of the fields tagged
// `keychain:"true"`, descending into embedded structs. Those fields hold
// secrets that should be read from the environment rather than from a file.
func GetKeychainFields(config any) []string {
	t := reflect.TypeOf(config)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return []string{}
	}

	fields := []string{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			fields = append(fields, GetKeychainFields(reflect.Zero(field.Type).Interface())...)

			continue
		}

		if field.Tag.Get("keychain") != "true" {
			continue
		}

		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" {
			name = field.Name
		}

		fields = append(fields, name)
	}

	return fields
}
