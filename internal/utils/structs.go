package utils

import "reflect"

// ColumnTag is the struct tag read for column names.
var ColumnTag = "db"

// StructTagValues lists the column names of a struct in field order.
func StructTagValues(input any) []string {
	value := structValue(input)
	result := make([]string, 0, value.NumField())

	eachColumn(value, func(column string, _ reflect.Value) {
		result = append(result, column)
	})

	return result
}

// StructToMap maps column names to field values, for insert statements.
func StructToMap(input any) map[string]any {
	result := make(map[string]any)

	eachColumn(structValue(input), func(column string, field reflect.Value) {
		result[column] = field.Interface()
	})

	return result
}

func structValue(input any) reflect.Value {
	value := reflect.ValueOf(input)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	if value.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	return value
}

func eachColumn(value reflect.Value, fn func(column string, field reflect.Value)) {
	valueType := value.Type()

	for i := range value.NumField() {
		field := valueType.Field(i)
		if !field.IsExported() {
			continue
		}

		column := field.Tag.Get(ColumnTag)
		if column == "" || column == "-" {
			continue
		}

		fn(column, value.Field(i))
	}
}
