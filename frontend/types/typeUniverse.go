package types

// Builtins holds the interned instances of every built-in type. One Builtins
// shares an arena with the engine and normalizer that consume it.
type Builtins struct {
	Nil         TypeId
	Boolean     TypeId
	Number      TypeId
	String      TypeId
	Thread      TypeId
	Buffer      TypeId
	TableTop    TypeId
	FunctionTop TypeId

	Any     TypeId
	Unknown TypeId
	Never   TypeId
	Error   TypeId

	True  TypeId
	False TypeId

	// stringMetatable backs the judgement that string values behave like
	// tables of the string library functions. Nil until registered.
	stringMetatable TypeId
}

func NewBuiltins(arena *TypeArena) *Builtins {
	return &Builtins{
		Nil:         arena.Primitive(NilKind),
		Boolean:     arena.Primitive(BooleanKind),
		Number:      arena.Primitive(NumberKind),
		String:      arena.Primitive(StringKind),
		Thread:      arena.Primitive(ThreadKind),
		Buffer:      arena.Primitive(BufferKind),
		TableTop:    arena.Primitive(TopTableKind),
		FunctionTop: arena.Primitive(TopFunctionKind),

		Any:     arena.internType(&AnyType{}),
		Unknown: arena.internType(&UnknownType{}),
		Never:   arena.internType(&NeverType{}),
		Error:   arena.internType(&ErrorType{}),

		True:  arena.BooleanSingleton(true),
		False: arena.BooleanSingleton(false),
	}
}

// RegisterStringMetatable installs the metatable consulted when a string
// primitive or singleton is compared against a table. The conventional shape
// is a table whose __index field holds the string library's method table.
func (b *Builtins) RegisterStringMetatable(mt TypeId) {
	b.stringMetatable = mt
}

func (b *Builtins) StringMetatable() TypeId {
	return b.stringMetatable
}

// Primitive maps a keyword to its built-in type, for readers and tests.
func (b *Builtins) Primitive(name string) (TypeId, bool) {
	switch name {
	case "nil":
		return b.Nil, true
	case "boolean":
		return b.Boolean, true
	case "number":
		return b.Number, true
	case "string":
		return b.String, true
	case "thread":
		return b.Thread, true
	case "buffer":
		return b.Buffer, true
	case "table":
		return b.TableTop, true
	case "function":
		return b.FunctionTop, true
	case "any":
		return b.Any, true
	case "unknown":
		return b.Unknown, true
	case "never":
		return b.Never, true
	case "true":
		return b.True, true
	case "false":
		return b.False, true
	default:
		return nil, false
	}
}
