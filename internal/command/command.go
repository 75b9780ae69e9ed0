package command

import (
	"fmt"
	"strings"
)

type Action string

const (
	Init     Action = "INIT"
	Save     Action = "SAVE"
	Create   Action = "CREATE"
	Insert   Action = "INSERT"
	Find     Action = "FIND"
	Describe Action = "DESCRIBE"
	Drop     Action = "DROP"
	Delete   Action = "DELETE"
	Update   Action = "UPDATE"
)

var actions = []Action{Init, Save, Create, Insert, Find, Describe, Drop, Delete, Update}

func ParseAction(s string) (Action, bool) {
	upper := Action(strings.ToUpper(s))
	for _, anAction := range actions {
		if anAction == upper {
			return anAction, true
		}
	}
	return "", false
}

// Element is the object a CREATE, DESCRIBE or DROP command targets.
type Element string

const (
	Database Element = "DATABASE"
	Table    Element = "TABLE"
)

type Operator string

const (
	Eq      Operator = "="
	Ne      Operator = "!="
	Gt      Operator = ">"
	Lt      Operator = "<"
	Gte     Operator = ">="
	Lte     Operator = "<="
	Like    Operator = "LIKE"
	NotLike Operator = "NOT LIKE"
	In      Operator = "IN"
	NotIn   Operator = "NOT IN"
)

// Supported reports whether the storage engine can evaluate the operator.
// LIKE and IN variants are recognised by the grammar only.
func (o Operator) Supported() bool {
	switch o {
	case Eq, Ne, Gt, Lt, Gte, Lte:
		return true
	default:
		return false
	}
}

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Operator, Literal(c.Value))
}

type OrderBy struct {
	Field string
	Desc  bool
}

type Modifiers struct {
	Distinct bool
	Limit    *int
	Offset   *int
}

// Command is the structured form of one textual command, ready for dispatch.
type Command struct {
	Action  Action
	Element Element
	// Name is the database or table name for INIT, CREATE, DESCRIBE and DROP.
	Name       string
	Table      string
	PrimaryKey string
	// Columns is nil for FIND * and for positional INSERT.
	Columns   []string
	Values    []any
	Set       []string
	SetValues []any
	Condition *Condition
	OrderBy   *OrderBy
	Modifiers Modifiers
	Raw       string
}

// RequiresSession reports whether the command can only run against an
// initialized database.
func (c Command) RequiresSession() bool {
	switch c.Action {
	case Init:
		return false
	case Describe, Drop:
		return c.Element != Database
	default:
		return true
	}
}

func (c Command) String() string {
	if c.Element != "" {
		return fmt.Sprintf("%s %s", c.Action, c.Element)
	}
	return string(c.Action)
}
