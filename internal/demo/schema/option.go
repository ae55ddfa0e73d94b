package schema

import (
	"github.com/syssam/saint"
	"github.com/syssam/saint/schema/field"
)

// Option stores the rows edited by the settings controller.
type Option struct {
	saint.Schema
}

func (Option) Fields() []saint.Field {
	return []saint.Field{
		field.String("name").
			NotEmpty(),
		field.Text("value").
			Optional(),
	}
}
