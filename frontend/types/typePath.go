package types

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// ComponentKind enumerates every structural position a judgement can blame.
type ComponentKind uint8

const (
	ComponentField ComponentKind = iota
	ComponentIndex
	ComponentParam
	ComponentReturn
	ComponentVariadic
	ComponentNegated
	ComponentUnionMember
	ComponentIntersectionMember
	ComponentMetatable
	ComponentClassParent
	ComponentIndexerKey
	ComponentIndexerValue
)

// Component is one step into a type tree. It is a plain value so Paths can
// be compared with ==.
type Component struct {
	Kind  ComponentKind
	Name  string
	Index int
}

func FieldPath(name string) Component { return Component{Kind: ComponentField, Name: name} }
func IndexPath(i int) Component       { return Component{Kind: ComponentIndex, Index: i} }
func ParamPath(i int) Component       { return Component{Kind: ComponentParam, Index: i} }
func ReturnPath(i int) Component      { return Component{Kind: ComponentReturn, Index: i} }
func UnionMemberPath(i int) Component { return Component{Kind: ComponentUnionMember, Index: i} }
func IntersectionMemberPath(i int) Component {
	return Component{Kind: ComponentIntersectionMember, Index: i}
}

var (
	VariadicPath     = Component{Kind: ComponentVariadic}
	NegatedPath      = Component{Kind: ComponentNegated}
	MetatablePath    = Component{Kind: ComponentMetatable}
	ClassParentPath  = Component{Kind: ComponentClassParent}
	IndexerKeyPath   = Component{Kind: ComponentIndexerKey}
	IndexerValuePath = Component{Kind: ComponentIndexerValue}
)

func (c Component) String() string {
	switch c.Kind {
	case ComponentField:
		return "." + c.Name
	case ComponentIndex:
		return "[" + strconv.Itoa(c.Index) + "]"
	case ComponentParam:
		return ".param(" + strconv.Itoa(c.Index) + ")"
	case ComponentReturn:
		return ".ret(" + strconv.Itoa(c.Index) + ")"
	case ComponentVariadic:
		return ".variadic()"
	case ComponentNegated:
		return ".negated()"
	case ComponentUnionMember:
		return ".union(" + strconv.Itoa(c.Index) + ")"
	case ComponentIntersectionMember:
		return ".intersection(" + strconv.Itoa(c.Index) + ")"
	case ComponentMetatable:
		return ".metatable()"
	case ComponentClassParent:
		return ".parent()"
	case ComponentIndexerKey:
		return ".indexkey()"
	case ComponentIndexerValue:
		return ".indexvalue()"
	default:
		return fmt.Sprintf("?component %d?", c.Kind)
	}
}

// Hash generates a hash for Component from its kind and payload
func (c Component) Hash() uint64 {
	const prime1 uint64 = 16777619
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(c.Name))
	hash := hasher.Sum64()
	hash = hash*prime1 ^ uint64(c.Kind)
	hash = hash*prime1 ^ uint64(c.Index)
	return hash
}

// Path addresses a position in a type tree, outermost component first. The
// zero value is the empty path, pointing at the type itself.
type Path struct {
	components []Component
}

func EmptyPath() Path { return Path{} }

func NewPath(components ...Component) Path {
	if len(components) == 0 {
		return Path{}
	}
	copied := make([]Component, len(components))
	copy(copied, components)
	return Path{components: copied}
}

func (p Path) IsEmpty() bool { return len(p.components) == 0 }

func (p Path) Len() int { return len(p.components) }

// Push returns a copy of p extended with one more, innermost, component.
func (p Path) Push(c Component) Path {
	components := make([]Component, 0, len(p.components)+1)
	components = append(components, p.components...)
	components = append(components, c)
	return Path{components: components}
}

// Prepend returns prefix followed by p.
func (p Path) Prepend(prefix Path) Path {
	if prefix.IsEmpty() {
		return p
	}
	components := make([]Component, 0, len(prefix.components)+len(p.components))
	components = append(components, prefix.components...)
	components = append(components, p.components...)
	return Path{components: components}
}

func (p Path) Components() []Component {
	out := make([]Component, len(p.components))
	copy(out, p.components)
	return out
}

func (p Path) Equal(other Path) bool {
	if len(p.components) != len(other.components) {
		return false
	}
	for i, c := range p.components {
		if c != other.components[i] {
			return false
		}
	}
	return true
}

// Hash generates a hash for Path by folding its components in order
func (p Path) Hash() uint64 {
	const prime1 uint64 = 16777619
	var hash uint64 = 2166136261
	for _, c := range p.components {
		hash = hash*prime1 ^ c.Hash()
	}
	return hash
}

func (p Path) String() string {
	var sb strings.Builder
	for _, c := range p.components {
		sb.WriteString(c.String())
	}
	return sb.String()
}
