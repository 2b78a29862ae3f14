package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeFor[time.Duration]()

// ApplyEnv overwrites every `env`-tagged field of the struct cfg points to
// whose variable is set and non-empty. Nested structs and struct pointers
// are walked. Values that do not parse for the field's type are reported
// together.
func ApplyEnv(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("apply env: want non-nil pointer, got %T", cfg)
	}

	var errs []error
	walkEnv(v.Elem(), &errs)
	return errors.Join(errs...)
}

func walkEnv(v reflect.Value, errs *[]error) {
	if v.Kind() != reflect.Struct {
		return
	}

	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Pointer && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		if field.Kind() == reflect.Struct {
			walkEnv(field, errs)
			continue
		}

		name := v.Type().Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if err := setFromEnv(field, raw); err != nil {
			*errs = append(*errs, fmt.Errorf("env %s: %w", name, err))
		}
	}
}

func setFromEnv(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true", "yes", "on":
			field.SetBool(true)
		case "0", "false", "no", "off":
			field.SetBool(false)
		default:
			return fmt.Errorf("invalid boolean %q", raw)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}
