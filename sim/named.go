package sim

import (
	"strconv"
	"strings"
)

// Named is an object that has a name.
type Named interface {
	Name() string
}

// NameMustBeValid panics if the name does not follow the naming convention.
// A name is a series of elements separated by dots. Each element must be
// named in capitalized CamelCase style, optionally followed by integer
// indices in square brackets, as in "Clinic.Operator[3]".
func NameMustBeValid(name string) {
	defer func() {
		if r := recover(); r != nil {
			panic("name " + name + " is not valid: " + r.(string))
		}
	}()

	for _, elem := range strings.Split(name, ".") {
		elemMustBeValid(elem)
	}
}

func elemMustBeValid(elem string) {
	base, indices := splitIndices(elem)

	if base == "" {
		panic("name element must not be empty")
	}

	if strings.Contains(base, "]") {
		panic("name brackets must match")
	}

	for _, c := range []string{"_", "\"", "'", "-", " "} {
		if strings.Contains(base, c) {
			panic("name element must not contain " + c)
		}
	}

	if base[0] < 'A' || base[0] > 'Z' {
		panic("name element must start with a capital letter")
	}

	for _, index := range indices {
		if _, err := strconv.Atoi(index); err != nil {
			panic("name index must be an integer")
		}
	}
}

func splitIndices(elem string) (base string, indices []string) {
	parts := strings.Split(elem, "[")
	base = parts[0]

	for _, part := range parts[1:] {
		if !strings.HasSuffix(part, "]") {
			panic("name brackets must match")
		}
		indices = append(indices, strings.TrimSuffix(part, "]"))
	}

	return base, indices
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds the name of one element of a series, such as
// "Caller[4]".
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName,
		elementName+"["+strconv.Itoa(index)+"]")
}
