package finding

import "strings"

// Class is the vulnerability class of a finding.
type Class string

const (
	// ClassXSS is cross-site scripting.
	ClassXSS Class = "xss"

	// ClassSQLi is SQL injection. "sql_injection" is accepted as an alias.
	ClassSQLi Class = "sqli"

	// ClassSSRF is server-side request forgery.
	ClassSSRF Class = "ssrf"

	// ClassXXE is XML external entity injection.
	ClassXXE Class = "xxe"

	// ClassSSTI is server-side template injection.
	ClassSSTI Class = "ssti"

	// ClassDeserialization is insecure deserialization.
	ClassDeserialization Class = "deserialization"

	// ClassOther is any class the engine has no specific knowledge of.
	ClassOther Class = "other"
)

// Family selects the rule validator bound to a class.
type Family int

const (
	// FamilyGeneric is the default arm for classes without a dedicated validator.
	FamilyGeneric Family = iota
	FamilyXSS
	FamilySQLi
	FamilySSRF
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyXSS:
		return "xss"
	case FamilySQLi:
		return "sqli"
	case FamilySSRF:
		return "ssrf"
	default:
		return "generic"
	}
}

var classAliases = map[string]Class{
	"xss":             ClassXSS,
	"sqli":            ClassSQLi,
	"sql_injection":   ClassSQLi,
	"ssrf":            ClassSSRF,
	"xxe":             ClassXXE,
	"ssti":            ClassSSTI,
	"deserialization": ClassDeserialization,
}

// ParseClass maps a raw vulnerability type string onto a Class, ignoring
// case. Unrecognised strings map to ClassOther.
func ParseClass(s string) Class {
	if c, ok := classAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return ClassOther
}

// Family returns the validator family for the class.
func (c Class) Family() Family {
	switch c {
	case ClassXSS:
		return FamilyXSS
	case ClassSQLi:
		return FamilySQLi
	case ClassSSRF:
		return FamilySSRF
	default:
		return FamilyGeneric
	}
}

// String returns the string representation of the class.
func (c Class) String() string {
	return string(c)
}
