package contract

import (
	"strings"
	"unicode/utf8"
)

// Exact validation messages returned by the backend. The harness treats
// these as fixed contract strings, not as display text.
const (
	MsgNameRequired       = "Campo requerido"
	MsgDescriptionTooShort = "Descrição precisa ter no mínimo 10 caracteres"
	MsgPricePositive      = "O preço deve ser positivo"
	MsgCategoryRequired   = "Deve haver pelo menos uma categoria"
)

// MinDescriptionLen is the minimum description length in characters.
const MinDescriptionLen = 10

// ProductDraft is a product-create payload as seen by the validation rules.
// Categories is a pointer so that "field absent" and "present but null" both
// map to nil, which the contract treats identically.
type ProductDraft struct {
	Name        string
	Description string
	Price       float64
	Categories  *[]int64
}

// Violation is one failed validation rule.
type Violation struct {
	FieldName string `json:"fieldName"`
	Message   string `json:"message"`
}

// Rule is a single field validation: a predicate plus the exact message the
// backend returns when it is violated.
type Rule struct {
	Field    string
	Message  string
	Violated func(d ProductDraft) bool
}

// Rules holds every product-create validation, in declaration order.
// The backend reports violations in this order, and assertions on errors[0]
// rely on it; reordering entries is a contract change.
var Rules = []Rule{
	{
		Field:   "name",
		Message: MsgNameRequired,
		Violated: func(d ProductDraft) bool {
			return strings.TrimSpace(d.Name) == ""
		},
	},
	{
		Field:   "description",
		Message: MsgDescriptionTooShort,
		Violated: func(d ProductDraft) bool {
			return utf8.RuneCountInString(d.Description) < MinDescriptionLen
		},
	},
	{
		Field:   "price",
		Message: MsgPricePositive,
		Violated: func(d ProductDraft) bool {
			// Strictly positive: zero is a violation.
			return d.Price <= 0
		},
	},
	{
		Field:   "categories",
		Message: MsgCategoryRequired,
		Violated: func(d ProductDraft) bool {
			return d.Categories == nil || len(*d.Categories) == 0
		},
	},
}

// Violations evaluates every rule against the draft and returns the failed
// ones in declaration order. An empty slice means the payload is valid.
func Violations(d ProductDraft) []Violation {
	var out []Violation
	for _, r := range Rules {
		if r.Violated(d) {
			out = append(out, Violation{FieldName: r.Field, Message: r.Message})
		}
	}
	return out
}
