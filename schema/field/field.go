package field

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/syssam/saint/schema"
)

// Descriptor for field configuration.
type Descriptor struct {
	Name          string                  // field name.
	Info          *TypeInfo               // field type info.
	Size          int                     // max size parameter for string and bytes.
	Enums         []struct{ N, V string } // enum values.
	Unique        bool                    // unique index of field.
	Nillable      bool                    // nillable struct field.
	Optional      bool                    // nullable field in database.
	Immutable     bool                    // create only field.
	Sensitive     bool                    // sensitive info string field.
	Default       any                     // default value on create.
	UpdateDefault any                     // default value on update.
	Validators    []any                   // validator functions.
	StorageKey    string                  // sql column.
	Comment       string                  // field comment.
	Annotations   []schema.Annotation     // field annotations.
	Err           error
}

// Column returns the storage column of the field.
func (d *Descriptor) Column() string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name
}

// EnumValues returns the values of an enum field in declaration order.
func (d *Descriptor) EnumValues() []string {
	vs := make([]string, len(d.Enums))
	for i, e := range d.Enums {
		vs[i] = e.V
	}
	return vs
}

// Validate runs the validators of the descriptor against v. The value
// must already be converted into the Go type of the field (string,
// int64, float64, bool, []byte or time.Time).
func (d *Descriptor) Validate(v any) error {
	var errs []error
	for _, fn := range d.Validators {
		var err error
		switch fn := fn.(type) {
		case func(string) error:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("unexpected type %T for field %q", v, d.Name)
			}
			err = fn(s)
		case func(int64) error:
			i, ok := v.(int64)
			if !ok {
				return fmt.Errorf("unexpected type %T for field %q", v, d.Name)
			}
			err = fn(i)
		case func(float64) error:
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("unexpected type %T for field %q", v, d.Name)
			}
			err = fn(f)
		case func([]byte) error:
			b, ok := v.([]byte)
			if !ok {
				return fmt.Errorf("unexpected type %T for field %q", v, d.Name)
			}
			err = fn(b)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// String returns a new Field with type string. The default max length
// is 255 characters.
func String(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeString},
		Size: 255,
	}}
}

// Text returns a new string field without limitation on the size.
func Text(name string) *stringBuilder {
	return &stringBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeText},
	}}
}

// Bytes returns a new Field with type bytes/buffer.
// In MySQL and SQLite, it is the "BLOB" type, and it does not support for Gremlin.
func Bytes(name string) *bytesBuilder {
	return &bytesBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeBytes},
	}}
}

// Bool returns a new Field with type bool.
func Bool(name string) *boolBuilder {
	return &boolBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeBool},
	}}
}

// Time returns a new Field with type timestamp.
func Time(name string) *timeBuilder {
	return &timeBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeTime},
	}}
}

// DateTime is an alias of Time.
func DateTime(name string) *timeBuilder {
	return Time(name)
}

// Date returns a new Field holding a calendar date without time of day.
func Date(name string) *timeBuilder {
	return &timeBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeDate},
	}}
}

// Clock returns a new Field holding a time of day.
func Clock(name string) *timeBuilder {
	return &timeBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeClock},
	}}
}

// Int returns a new Field with type int.
func Int(name string) *intBuilder {
	return &intBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeInt},
	}}
}

// Int64 returns a new Field with type int64.
func Int64(name string) *intBuilder {
	return &intBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeInt64},
	}}
}

// Float returns a new Field with type float64.
func Float(name string) *floatBuilder {
	return &floatBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeFloat64},
	}}
}

// Decimal returns a new Field holding an exact decimal number.
func Decimal(name string) *floatBuilder {
	return &floatBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeDecimal},
	}}
}

// Enum returns a new Field with type enum. An example for defining enum is as follows:
//
//	field.Enum("state").
//		Values(
//			"on",
//			"off",
//		).
//		Default("on")
func Enum(name string) *enumBuilder {
	return &enumBuilder{&Descriptor{
		Name: name,
		Info: &TypeInfo{Type: TypeEnum},
	}}
}

// stringBuilder is the builder for string fields.
type stringBuilder struct {
	desc *Descriptor
}

// Unique makes the field unique within all vertices of this type.
func (b *stringBuilder) Unique() *stringBuilder {
	b.desc.Unique = true
	return b
}

// Match adds a regex matcher for this field. Operation fails if the regex fails.
func (b *stringBuilder) Match(re *regexp.Regexp) *stringBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v string) error {
		if !re.MatchString(v) {
			return errors.New("value does not match validation")
		}
		return nil
	})
	return b
}

// MinLen adds a length validator for this field.
// Operation fails if the length of the string is less than the given value.
func (b *stringBuilder) MinLen(i int) *stringBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v string) error {
		if utf8.RuneCountInString(v) < i {
			return errors.New("value is less than the required length")
		}
		return nil
	})
	return b
}

// NotEmpty adds a length validator for this field.
// Operation fails if the length of the string is zero.
func (b *stringBuilder) NotEmpty() *stringBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v string) error {
		if v == "" {
			return errors.New("value is required")
		}
		return nil
	})
	return b
}

// MaxLen adds a length validator for this field.
// Operation fails if the length of the string is greater than the given value.
func (b *stringBuilder) MaxLen(i int) *stringBuilder {
	b.desc.Size = i
	b.desc.Validators = append(b.desc.Validators, func(v string) error {
		if utf8.RuneCountInString(v) > i {
			return errors.New("value is greater than the required length")
		}
		return nil
	})
	return b
}

// Validate adds a validator for this field. Operation fails if the validation fails.
func (b *stringBuilder) Validate(fn func(string) error) *stringBuilder {
	b.desc.Validators = append(b.desc.Validators, fn)
	return b
}

// Default sets the default value of the field.
func (b *stringBuilder) Default(s string) *stringBuilder {
	b.desc.Default = s
	return b
}

// DefaultFunc sets the function that is applied to set the default value
// of the field on creation.
func (b *stringBuilder) DefaultFunc(fn func() string) *stringBuilder {
	b.desc.Default = fn
	return b
}

// Nillable indicates that this field is a nillable.
func (b *stringBuilder) Nillable() *stringBuilder {
	b.desc.Nillable = true
	b.desc.Info.Nillable = true
	return b
}

// Optional indicates that this field is optional on create.
// Unlike edges, fields are required by default.
func (b *stringBuilder) Optional() *stringBuilder {
	b.desc.Optional = true
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *stringBuilder) Immutable() *stringBuilder {
	b.desc.Immutable = true
	return b
}

// Sensitive fields are never rendered back to the user. The admin layer
// edits them as password columns.
func (b *stringBuilder) Sensitive() *stringBuilder {
	b.desc.Sensitive = true
	return b
}

// Comment sets the comment of the field.
func (b *stringBuilder) Comment(c string) *stringBuilder {
	b.desc.Comment = c
	return b
}

// StorageKey sets the storage key of the field.
// In SQL dialects is the column name.
func (b *stringBuilder) StorageKey(key string) *stringBuilder {
	b.desc.StorageKey = key
	return b
}

// Annotations adds a list of annotations to the field object to be used by
// the admin layer.
//
//	field.Text("content").
//		Annotations(field.Annotation{Type: "rte"})
func (b *stringBuilder) Annotations(annotations ...schema.Annotation) *stringBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Field interface by returning its descriptor.
func (b *stringBuilder) Descriptor() *Descriptor {
	return b.desc
}

// bytesBuilder is the builder for bytes fields.
type bytesBuilder struct {
	desc *Descriptor
}

// MaxLen sets the maximum size of the field.
func (b *bytesBuilder) MaxLen(i int) *bytesBuilder {
	b.desc.Size = i
	b.desc.Validators = append(b.desc.Validators, func(v []byte) error {
		if len(v) > i {
			return errors.New("value is greater than the required length")
		}
		return nil
	})
	return b
}

// Optional indicates that this field is optional on create.
func (b *bytesBuilder) Optional() *bytesBuilder {
	b.desc.Optional = true
	return b
}

// Nillable indicates that this field is a nillable.
func (b *bytesBuilder) Nillable() *bytesBuilder {
	b.desc.Nillable = true
	b.desc.Info.Nillable = true
	return b
}

// Comment sets the comment of the field.
func (b *bytesBuilder) Comment(c string) *bytesBuilder {
	b.desc.Comment = c
	return b
}

// StorageKey sets the storage key of the field.
func (b *bytesBuilder) StorageKey(key string) *bytesBuilder {
	b.desc.StorageKey = key
	return b
}

// Annotations adds a list of annotations to the field object.
func (b *bytesBuilder) Annotations(annotations ...schema.Annotation) *bytesBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Field interface by returning its descriptor.
func (b *bytesBuilder) Descriptor() *Descriptor {
	return b.desc
}

// boolBuilder is the builder for boolean fields.
type boolBuilder struct {
	desc *Descriptor
}

// Default sets the default value of the field.
func (b *boolBuilder) Default(v bool) *boolBuilder {
	b.desc.Default = v
	return b
}

// Nillable indicates that this field is a nillable.
func (b *boolBuilder) Nillable() *boolBuilder {
	b.desc.Nillable = true
	b.desc.Info.Nillable = true
	return b
}

// Optional indicates that this field is optional on create.
func (b *boolBuilder) Optional() *boolBuilder {
	b.desc.Optional = true
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *boolBuilder) Immutable() *boolBuilder {
	b.desc.Immutable = true
	return b
}

// Comment sets the comment of the field.
func (b *boolBuilder) Comment(c string) *boolBuilder {
	b.desc.Comment = c
	return b
}

// StorageKey sets the storage key of the field.
func (b *boolBuilder) StorageKey(key string) *boolBuilder {
	b.desc.StorageKey = key
	return b
}

// Annotations adds a list of annotations to the field object.
func (b *boolBuilder) Annotations(annotations ...schema.Annotation) *boolBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Field interface by returning its descriptor.
func (b *boolBuilder) Descriptor() *Descriptor {
	return b.desc
}

// timeBuilder is the builder for time, date and clock fields.
type timeBuilder struct {
	desc *Descriptor
}

// Default sets the function that is applied to set default value
// of the field on creation. Eg:
//
//	field.Time("created_at").
//		Default(time.Now)
func (b *timeBuilder) Default(fn func() time.Time) *timeBuilder {
	b.desc.Default = fn
	return b
}

// UpdateDefault sets the function that is applied to set default value
// of the field on update. For example:
//
//	field.Time("updated_at").
//		Default(time.Now).
//		UpdateDefault(time.Now)
func (b *timeBuilder) UpdateDefault(fn func() time.Time) *timeBuilder {
	b.desc.UpdateDefault = fn
	return b
}

// Nillable indicates that this field is a nillable.
func (b *timeBuilder) Nillable() *timeBuilder {
	b.desc.Nillable = true
	b.desc.Info.Nillable = true
	return b
}

// Optional indicates that this field is optional on create.
func (b *timeBuilder) Optional() *timeBuilder {
	b.desc.Optional = true
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *timeBuilder) Immutable() *timeBuilder {
	b.desc.Immutable = true
	return b
}

// Comment sets the comment of the field.
func (b *timeBuilder) Comment(c string) *timeBuilder {
	b.desc.Comment = c
	return b
}

// StorageKey sets the storage key of the field.
func (b *timeBuilder) StorageKey(key string) *timeBuilder {
	b.desc.StorageKey = key
	return b
}

// Annotations adds a list of annotations to the field object.
func (b *timeBuilder) Annotations(annotations ...schema.Annotation) *timeBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Field interface by returning its descriptor.
func (b *timeBuilder) Descriptor() *Descriptor {
	return b.desc
}

// intBuilder is the builder for int and int64 fields.
type intBuilder struct {
	desc *Descriptor
}

// Unique makes the field unique within all vertices of this type.
func (b *intBuilder) Unique() *intBuilder {
	b.desc.Unique = true
	return b
}

// Range adds a range validator for this field where the given value needs to be in the range of [i, j].
func (b *intBuilder) Range(i, j int64) *intBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v int64) error {
		if v < i || v > j {
			return errors.New("value out of range")
		}
		return nil
	})
	return b
}

// Min adds a minimum value validator for this field. Operation fails if the validator fails.
func (b *intBuilder) Min(i int64) *intBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v int64) error {
		if v < i {
			return errors.New("value out of range")
		}
		return nil
	})
	return b
}

// Max adds a maximum value validator for this field. Operation fails if the validator fails.
func (b *intBuilder) Max(i int64) *intBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v int64) error {
		if v > i {
			return errors.New("value out of range")
		}
		return nil
	})
	return b
}

// Positive adds a minimum value validator with the value of 1. Operation fails if the validator fails.
func (b *intBuilder) Positive() *intBuilder {
	return b.Min(1)
}

// NonNegative adds a minimum value validator with the value of 0. Operation fails if the validator fails.
func (b *intBuilder) NonNegative() *intBuilder {
	return b.Min(0)
}

// Validate adds a validator for this field. Operation fails if the validation fails.
func (b *intBuilder) Validate(fn func(int64) error) *intBuilder {
	b.desc.Validators = append(b.desc.Validators, fn)
	return b
}

// Default sets the default value of the field.
func (b *intBuilder) Default(i int64) *intBuilder {
	b.desc.Default = i
	return b
}

// Nillable indicates that this field is a nillable.
func (b *intBuilder) Nillable() *intBuilder {
	b.desc.Nillable = true
	b.desc.Info.Nillable = true
	return b
}

// Optional indicates that this field is optional on create.
func (b *intBuilder) Optional() *intBuilder {
	b.desc.Optional = true
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *intBuilder) Immutable() *intBuilder {
	b.desc.Immutable = true
	return b
}

// Comment sets the comment of the field.
func (b *intBuilder) Comment(c string) *intBuilder {
	b.desc.Comment = c
	return b
}

// StorageKey sets the storage key of the field.
func (b *intBuilder) StorageKey(key string) *intBuilder {
	b.desc.StorageKey = key
	return b
}

// Annotations adds a list of annotations to the field object.
func (b *intBuilder) Annotations(annotations ...schema.Annotation) *intBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Field interface by returning its descriptor.
func (b *intBuilder) Descriptor() *Descriptor {
	return b.desc
}

// floatBuilder is the builder for float and decimal fields.
type floatBuilder struct {
	desc *Descriptor
}

// Range adds a range validator for this field where the given value needs to be in the range of [i, j].
func (b *floatBuilder) Range(i, j float64) *floatBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v float64) error {
		if v < i || v > j {
			return errors.New("value out of range")
		}
		return nil
	})
	return b
}

// Min adds a minimum value validator for this field. Operation fails if the validator fails.
func (b *floatBuilder) Min(i float64) *floatBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v float64) error {
		if v < i {
			return errors.New("value out of range")
		}
		return nil
	})
	return b
}

// Max adds a maximum value validator for this field. Operation fails if the validator fails.
func (b *floatBuilder) Max(i float64) *floatBuilder {
	b.desc.Validators = append(b.desc.Validators, func(v float64) error {
		if v > i {
			return errors.New("value out of range")
		}
		return nil
	})
	return b
}

// Positive adds a minimum value validator with the value of 0.000001. Operation fails if the validator fails.
func (b *floatBuilder) Positive() *floatBuilder {
	return b.Min(1e-06)
}

// Default sets the default value of the field.
func (b *floatBuilder) Default(f float64) *floatBuilder {
	b.desc.Default = f
	return b
}

// Nillable indicates that this field is a nillable.
func (b *floatBuilder) Nillable() *floatBuilder {
	b.desc.Nillable = true
	b.desc.Info.Nillable = true
	return b
}

// Optional indicates that this field is optional on create.
func (b *floatBuilder) Optional() *floatBuilder {
	b.desc.Optional = true
	return b
}

// Comment sets the comment of the field.
func (b *floatBuilder) Comment(c string) *floatBuilder {
	b.desc.Comment = c
	return b
}

// StorageKey sets the storage key of the field.
func (b *floatBuilder) StorageKey(key string) *floatBuilder {
	b.desc.StorageKey = key
	return b
}

// Annotations adds a list of annotations to the field object.
func (b *floatBuilder) Annotations(annotations ...schema.Annotation) *floatBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Field interface by returning its descriptor.
func (b *floatBuilder) Descriptor() *Descriptor {
	return b.desc
}

// enumBuilder is the builder for enum fields.
type enumBuilder struct {
	desc *Descriptor
}

// Values adds given values to the enum values.
//
//	field.Enum("priority").
//		Values("low", "mid", "high")
func (b *enumBuilder) Values(values ...string) *enumBuilder {
	for _, v := range values {
		b.desc.Enums = append(b.desc.Enums, struct{ N, V string }{N: v, V: v})
	}
	return b
}

// NamedValues adds the given name, value pairs to the enum value.
// The "name" is the label shown to the user and the "value" is the
// stored value.
//
//	field.Enum("priority").
//		NamedValues(
//			"Low", "LOW",
//			"Mid", "MID",
//			"High", "HIGH",
//		)
func (b *enumBuilder) NamedValues(namevalue ...string) *enumBuilder {
	if len(namevalue)%2 == 1 {
		b.desc.Err = fmt.Errorf("Enum.NamedValues: odd argument count")
		return b
	}
	for i := 0; i < len(namevalue); i += 2 {
		b.desc.Enums = append(b.desc.Enums, struct{ N, V string }{N: namevalue[i], V: namevalue[i+1]})
	}
	return b
}

// Default sets the default value of the field.
func (b *enumBuilder) Default(value string) *enumBuilder {
	b.desc.Default = value
	return b
}

// Nillable indicates that this field is a nillable.
func (b *enumBuilder) Nillable() *enumBuilder {
	b.desc.Nillable = true
	b.desc.Info.Nillable = true
	return b
}

// Optional indicates that this field is optional on create.
func (b *enumBuilder) Optional() *enumBuilder {
	b.desc.Optional = true
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *enumBuilder) Immutable() *enumBuilder {
	b.desc.Immutable = true
	return b
}

// Comment sets the comment of the field.
func (b *enumBuilder) Comment(c string) *enumBuilder {
	b.desc.Comment = c
	return b
}

// StorageKey sets the storage key of the field.
func (b *enumBuilder) StorageKey(key string) *enumBuilder {
	b.desc.StorageKey = key
	return b
}

// Annotations adds a list of annotations to the field object.
func (b *enumBuilder) Annotations(annotations ...schema.Annotation) *enumBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor implements the saint.Field interface by returning its descriptor.
// Enums must declare at least one value and values must be unique.
func (b *enumBuilder) Descriptor() *Descriptor {
	if b.desc.Err == nil {
		b.desc.Err = b.checkValues()
	}
	return b.desc
}

func (b *enumBuilder) checkValues() error {
	if len(b.desc.Enums) == 0 {
		return fmt.Errorf("missing values for enum field %q", b.desc.Name)
	}
	seen := make(map[string]bool, len(b.desc.Enums))
	for _, e := range b.desc.Enums {
		if e.V == "" {
			return fmt.Errorf("%q field value cannot be empty", b.desc.Name)
		}
		if seen[e.V] {
			return fmt.Errorf("duplicate values %q for enum field %q", e.V, b.desc.Name)
		}
		seen[e.V] = true
	}
	if d, ok := b.desc.Default.(string); ok && !seen[d] {
		return fmt.Errorf("invalid default value %q for enum field %q", d, b.desc.Name)
	}
	return nil
}
