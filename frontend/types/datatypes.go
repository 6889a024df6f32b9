package types

import (
	"fmt"
	"github.com/hashicorp/go-set/v3"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// TypeId is an interned type node. Two TypeIds returned by the same TypeArena
// are == exactly when they intern equally, so identity comparison is
// structural equality.
type TypeId interface {
	fmt.Stringer
	Hash() uint64
	arenaSeq() uint64
	typeNode()
}

// TypePackId is an interned type pack node, under the same identity rules as
// TypeId.
type TypePackId interface {
	fmt.Stringer
	Hash() uint64
	arenaSeq() uint64
	packNode()
}

// Equal can be used to compare TypeId or TypePackId instances for equality.
// We implement it here rather than in individual types because interning
// makes hash equality and structural equality coincide.
func Equal[H, HH set.Hasher[uint64]](this H, other HH) bool {
	return this.Hash() == other.Hash()
}

// interned carries the sequence number the arena assigned to a node. The
// sequence gives a stable total order over nodes of one arena, which keeps
// union and intersection member order canonical.
type interned struct {
	seq uint64
}

func (i *interned) arenaSeq() uint64 { return i.seq }

var (
	_ TypeId = (*AnyType)(nil)
	_ TypeId = (*UnknownType)(nil)
	_ TypeId = (*NeverType)(nil)
	_ TypeId = (*ErrorType)(nil)
	_ TypeId = (*PrimitiveType)(nil)
	_ TypeId = (*StringSingletonType)(nil)
	_ TypeId = (*BooleanSingletonType)(nil)
	_ TypeId = (*UnionType)(nil)
	_ TypeId = (*IntersectionType)(nil)
	_ TypeId = (*NegationType)(nil)
	_ TypeId = (*TableType)(nil)
	_ TypeId = (*MetatableType)(nil)
	_ TypeId = (*ClassType)(nil)
	_ TypeId = (*FunctionType)(nil)
	_ TypeId = (*GenericType)(nil)
	_ TypeId = (*TypeFamilyInstanceType)(nil)

	_ TypePackId = (*TypePack)(nil)
	_ TypePackId = (*VariadicTypePack)(nil)
	_ TypePackId = (*GenericTypePack)(nil)
)

// AnyType is both a subtype and a supertype of everything; it short-circuits
// any judgement it appears in.
type AnyType struct{ interned }

func (t *AnyType) typeNode()      {}
func (t *AnyType) String() string { return "any" }
func (t *AnyType) Hash() uint64 {
	return 14695981039346656037 // FNV-1a offset basis
}

// UnknownType is the top of the lattice.
type UnknownType struct{ interned }

func (t *UnknownType) typeNode()      {}
func (t *UnknownType) String() string { return "unknown" }
func (t *UnknownType) Hash() uint64 {
	return 1099511628211 // FNV-1a prime for top
}

// NeverType is the bottom of the lattice.
type NeverType struct{ interned }

func (t *NeverType) typeNode()      {}
func (t *NeverType) String() string { return "never" }
func (t *NeverType) Hash() uint64 {
	return 16777619 // FNV-1a prime for bottom
}

// ErrorType suppresses cascading diagnostics: it compares as a subtype and a
// supertype of everything, like any.
type ErrorType struct{ interned }

func (t *ErrorType) typeNode()      {}
func (t *ErrorType) String() string { return "*error*" }
func (t *ErrorType) Hash() uint64   { return 9576890767 }

type PrimitiveKind uint8

const (
	NilKind PrimitiveKind = iota
	BooleanKind
	NumberKind
	StringKind
	ThreadKind
	BufferKind
	// TopTableKind is the type of all tables.
	TopTableKind
	// TopFunctionKind is the type of all functions.
	TopFunctionKind
)

func (k PrimitiveKind) String() string {
	switch k {
	case NilKind:
		return "nil"
	case BooleanKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ThreadKind:
		return "thread"
	case BufferKind:
		return "buffer"
	case TopTableKind:
		return "table"
	case TopFunctionKind:
		return "function"
	default:
		return "?prim?"
	}
}

type PrimitiveType struct {
	interned
	Kind PrimitiveKind
}

func (t *PrimitiveType) typeNode()      {}
func (t *PrimitiveType) String() string { return t.Kind.String() }

// Hash generates a hash for PrimitiveType using its kind
func (t *PrimitiveType) Hash() uint64 {
	return 2166136261*31 + uint64(t.Kind)*7919
}

// StringSingletonType is the type of one exact string value.
type StringSingletonType struct {
	interned
	Value string
}

func (t *StringSingletonType) typeNode()      {}
func (t *StringSingletonType) String() string { return strconv.Quote(t.Value) }
func (t *StringSingletonType) Hash() uint64 {
	const prime1 uint64 = 1299709
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(t.Value))
	return prime1 ^ hasher.Sum64()
}

// BooleanSingletonType is the type of exactly true, or exactly false.
type BooleanSingletonType struct {
	interned
	Value bool
}

func (t *BooleanSingletonType) typeNode() {}
func (t *BooleanSingletonType) String() string {
	if t.Value {
		return "true"
	}
	return "false"
}
func (t *BooleanSingletonType) Hash() uint64 {
	if t.Value {
		return 104729
	}
	return 224737
}

// UnionType holds at least two members, flattened, deduplicated and ordered
// by arena sequence.
type UnionType struct {
	interned
	Members []TypeId
}

func (t *UnionType) typeNode() {}
func (t *UnionType) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// Hash generates a hash for UnionType by folding its members
func (t *UnionType) Hash() uint64 {
	var hash uint64 = 37
	for _, m := range t.Members {
		hash = hash*31 ^ m.Hash()
	}
	return hash
}

// IntersectionType holds at least two members under the same canonical form
// as UnionType.
type IntersectionType struct {
	interned
	Members []TypeId
}

func (t *IntersectionType) typeNode() {}
func (t *IntersectionType) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, " & ") + ")"
}

// Hash generates a hash for IntersectionType by folding its members
func (t *IntersectionType) Hash() uint64 {
	var hash uint64 = 43
	for _, m := range t.Members {
		hash = hash*41 ^ m.Hash()
	}
	return hash
}

type NegationType struct {
	interned
	Negated TypeId
}

func (t *NegationType) typeNode()      {}
func (t *NegationType) String() string { return "~" + t.Negated.String() }

// Hash generates a hash for NegationType using its negated type
func (t *NegationType) Hash() uint64 {
	return t.Negated.Hash() * 53
}

// Property is one named table or class field.
type Property struct {
	Ty TypeId
	// ReadOnly fields compare covariantly; writable fields must match
	// invariantly.
	ReadOnly bool
}

type TableIndexer struct {
	Key   TypeId
	Value TypeId
}

type TableState uint8

const (
	TableSealed TableState = iota
	TableUnsealed
	TableGeneric
)

func (s TableState) String() string {
	switch s {
	case TableSealed:
		return "sealed"
	case TableUnsealed:
		return "unsealed"
	case TableGeneric:
		return "generic"
	default:
		return "?state?"
	}
}

type TableType struct {
	interned
	Props   map[string]Property
	Indexer *TableIndexer
	State   TableState
}

func (t *TableType) typeNode() {}

// PropNames returns the field names in lexical order. All iteration over
// table fields goes through this so output and hashing stay deterministic.
func (t *TableType) PropNames() []string {
	names := make([]string, 0, len(t.Props))
	for name := range t.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *TableType) String() string {
	var parts []string
	for _, name := range t.PropNames() {
		prop := t.Props[name]
		if prop.ReadOnly {
			parts = append(parts, "read "+name+": "+prop.Ty.String())
		} else {
			parts = append(parts, name+": "+prop.Ty.String())
		}
	}
	if t.Indexer != nil {
		parts = append(parts, "["+t.Indexer.Key.String()+"]: "+t.Indexer.Value.String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Hash generates a hash for TableType by folding its fields in lexical order
func (t *TableType) Hash() uint64 {
	const prime1 uint64 = 15487469
	const prime2 uint64 = 32452843

	hasher := fnv.New64a()
	hash := prime2
	for _, name := range t.PropNames() {
		prop := t.Props[name]
		hash = hash*prime1 ^ prop.Ty.Hash()
		if prop.ReadOnly {
			hash = hash*prime1 ^ 3
		}
		_, _ = hasher.Write([]byte(name))
	}
	if t.Indexer != nil {
		hash = hash*prime1 ^ t.Indexer.Key.Hash()
		hash = hash*prime1 ^ t.Indexer.Value.Hash()
	}
	hash = hash*prime1 ^ uint64(t.State)
	return hash * hasher.Sum64()
}

// MetatableType pairs a table with its metatable.
type MetatableType struct {
	interned
	Table     TypeId
	Metatable TypeId
}

func (t *MetatableType) typeNode() {}
func (t *MetatableType) String() string {
	return "{ @metatable " + t.Metatable.String() + ", " + t.Table.String() + " }"
}

// Hash generates a hash for MetatableType using its two halves
func (t *MetatableType) Hash() uint64 {
	return t.Table.Hash()*61 ^ t.Metatable.Hash()*67
}

// ClassType is a nominal type: subtyping between classes walks the parent
// chain and ignores structure.
type ClassType struct {
	interned
	Name   string
	Parent TypeId // nil for a root class
	Props  map[string]Property
	// Metatable is consulted for __call and __index like a table metatable.
	Metatable TypeId
}

func (t *ClassType) typeNode()      {}
func (t *ClassType) String() string { return t.Name }

// PropNames returns the class's own field names in lexical order.
func (t *ClassType) PropNames() []string {
	names := make([]string, 0, len(t.Props))
	for name := range t.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hash generates a hash for ClassType from its name and parent
func (t *ClassType) Hash() uint64 {
	const prime1 uint64 = 6700417
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(t.Name))
	hash := prime1 ^ hasher.Sum64()
	if t.Parent != nil {
		hash = hash*71 ^ t.Parent.Hash()
	}
	return hash
}

type FunctionType struct {
	interned
	// Generics lists the GenericType nodes quantified by this function; they
	// become flexible while two functions are compared.
	Generics     []TypeId
	GenericPacks []TypePackId
	Args         TypePackId
	Rets         TypePackId
}

func (t *FunctionType) typeNode() {}
func (t *FunctionType) String() string {
	var sb strings.Builder
	if len(t.Generics) > 0 || len(t.GenericPacks) > 0 {
		var names []string
		for _, g := range t.Generics {
			names = append(names, g.String())
		}
		for _, gp := range t.GenericPacks {
			names = append(names, gp.String())
		}
		sb.WriteString("<" + strings.Join(names, ", ") + ">")
	}
	sb.WriteString(t.Args.String())
	sb.WriteString(" -> ")
	sb.WriteString(t.Rets.String())
	return sb.String()
}

// Hash generates a hash for FunctionType by folding generics and both packs
func (t *FunctionType) Hash() uint64 {
	var hash uint64 = 2166136261
	for _, g := range t.Generics {
		hash = hash*16777619 ^ g.Hash()
	}
	for _, gp := range t.GenericPacks {
		hash = hash*16777619 ^ gp.Hash()
	}
	hash = hash*16777619 ^ t.Args.Hash()
	hash = hash*16777619 ^ t.Rets.Hash()
	return hash
}

// GenericType is a quantified type variable. Unlike structural nodes it is
// generative: every FreshGeneric call yields a distinct node even for the
// same name, so identity comparison is binding-site comparison.
type GenericType struct {
	interned
	Name string
	id   uint64
}

func (t *GenericType) typeNode()      {}
func (t *GenericType) String() string { return t.Name }

// Hash generates a hash for GenericType from its allocation id
func (t *GenericType) Hash() uint64 {
	const prime1 uint64 = 31
	const prime2 uint64 = 7919
	return prime1 * prime2 * (t.id + 1)
}

// TypeFamilyInstanceType is an unevaluated application of a type family. It
// must be reduced before it can be compared.
type TypeFamilyInstanceType struct {
	interned
	Family   *TypeFamily
	TypeArgs []TypeId
	PackArgs []TypePackId
}

func (t *TypeFamilyInstanceType) typeNode() {}
func (t *TypeFamilyInstanceType) String() string {
	var parts []string
	for _, a := range t.TypeArgs {
		parts = append(parts, a.String())
	}
	for _, p := range t.PackArgs {
		parts = append(parts, p.String())
	}
	return t.Family.Name + "<" + strings.Join(parts, ", ") + ">"
}

// Hash generates a hash for TypeFamilyInstanceType from the family name and
// its arguments
func (t *TypeFamilyInstanceType) Hash() uint64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(t.Family.Name))
	hash := hasher.Sum64()
	for _, a := range t.TypeArgs {
		hash = hash*16777619 ^ a.Hash()
	}
	for _, p := range t.PackArgs {
		hash = hash*16777619 ^ p.Hash()
	}
	return hash
}

// TypePack is a finite head of types with an optional tail pack.
type TypePack struct {
	interned
	Head []TypeId
	// Tail is nil, a VariadicTypePack, or a GenericTypePack.
	Tail TypePackId
}

func (t *TypePack) packNode() {}
func (t *TypePack) String() string {
	parts := make([]string, 0, len(t.Head)+1)
	for _, ty := range t.Head {
		parts = append(parts, ty.String())
	}
	if t.Tail != nil {
		parts = append(parts, t.Tail.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Hash generates a hash for TypePack by folding its head and tail
func (t *TypePack) Hash() uint64 {
	const prime1 uint64 = 433
	const prime2 uint64 = 9973

	hash := prime2
	for _, elem := range t.Head {
		hash = hash*prime1 ^ elem.Hash()
	}
	if t.Tail != nil {
		hash = hash*prime1 ^ t.Tail.Hash()
	}
	return hash
}

// VariadicTypePack denotes zero or more values of Ty.
type VariadicTypePack struct {
	interned
	Ty TypeId
}

func (t *VariadicTypePack) packNode()      {}
func (t *VariadicTypePack) String() string { return "..." + t.Ty.String() }

// Hash generates a hash for VariadicTypePack using its element type
func (t *VariadicTypePack) Hash() uint64 {
	return 2166136261*16777619 ^ t.Ty.Hash()
}

// GenericTypePack is a quantified pack variable, generative like GenericType.
type GenericTypePack struct {
	interned
	Name string
	id   uint64
}

func (t *GenericTypePack) packNode()      {}
func (t *GenericTypePack) String() string { return t.Name + "..." }

// Hash generates a hash for GenericTypePack from its allocation id
func (t *GenericTypePack) Hash() uint64 {
	const prime1 uint64 = 10007
	const prime2 uint64 = 104729
	return prime1 * prime2 * (t.id + 1)
}
