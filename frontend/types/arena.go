package types

import (
	"sort"

	"github.com/xtgo/set"
)

// TypeArena interns type and pack nodes. Nodes with equal hashes intern to
// the same node, so == on TypeId is structural equality for nodes of one
// arena. Generic types and generic packs are the exception: they are
// generative, and every Fresh call allocates a new identity.
//
// A TypeArena is not safe for concurrent use; every compilation unit owns
// its own.
type TypeArena struct {
	types   map[uint64]TypeId
	packs   map[uint64]TypePackId
	nextSeq uint64
}

func NewArena() *TypeArena {
	return &TypeArena{
		types: make(map[uint64]TypeId),
		packs: make(map[uint64]TypePackId),
	}
}

func (i *interned) setSeq(seq uint64) { i.seq = seq }

type internable interface {
	setSeq(seq uint64)
	arenaSeq() uint64
}

func (a *TypeArena) internType(t TypeId) TypeId {
	if existing, ok := a.types[t.Hash()]; ok {
		return existing
	}
	a.adopt(t.(internable))
	a.types[t.Hash()] = t
	return t
}

func (a *TypeArena) internPack(p TypePackId) TypePackId {
	if existing, ok := a.packs[p.Hash()]; ok {
		return existing
	}
	a.adopt(p.(internable))
	a.packs[p.Hash()] = p
	return p
}

func (a *TypeArena) adopt(node internable) {
	a.nextSeq++
	node.setSeq(a.nextSeq)
}

// Size returns how many nodes the arena has interned, generative nodes
// included.
func (a *TypeArena) Size() int {
	return int(a.nextSeq)
}

func (a *TypeArena) Primitive(kind PrimitiveKind) TypeId {
	return a.internType(&PrimitiveType{Kind: kind})
}

func (a *TypeArena) StringSingleton(value string) TypeId {
	return a.internType(&StringSingletonType{Value: value})
}

func (a *TypeArena) BooleanSingleton(value bool) TypeId {
	return a.internType(&BooleanSingletonType{Value: value})
}

// bySeq orders nodes by their arena sequence number. Sorting members by
// sequence gives unions and intersections one canonical member order no
// matter how the caller spelled them.
type bySeq []TypeId

func (s bySeq) Len() int           { return len(s) }
func (s bySeq) Less(i, j int) bool { return s[i].arenaSeq() < s[j].arenaSeq() }
func (s bySeq) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// canonicalMembers flattens nested same-kind members, then sorts and
// deduplicates by arena sequence.
func (a *TypeArena) canonicalMembers(members []TypeId, flattenUnion bool) []TypeId {
	flat := make([]TypeId, 0, len(members))
	for _, m := range members {
		m = a.internType(m)
		if flattenUnion {
			if u, ok := m.(*UnionType); ok {
				flat = append(flat, u.Members...)
				continue
			}
		} else {
			if i, ok := m.(*IntersectionType); ok {
				flat = append(flat, i.Members...)
				continue
			}
		}
		flat = append(flat, m)
	}
	sort.Sort(bySeq(flat))
	n := set.Uniq(bySeq(flat))
	return flat[:n]
}

// Union builds the canonical union of members. Zero members give never, one
// member gives that member back.
func (a *TypeArena) Union(members ...TypeId) TypeId {
	canonical := a.canonicalMembers(members, true)
	switch len(canonical) {
	case 0:
		return a.internType(&NeverType{})
	case 1:
		return canonical[0]
	}
	return a.internType(&UnionType{Members: canonical})
}

// Intersection builds the canonical intersection of members. Zero members
// give unknown, one member gives that member back.
func (a *TypeArena) Intersection(members ...TypeId) TypeId {
	canonical := a.canonicalMembers(members, false)
	switch len(canonical) {
	case 0:
		return a.internType(&UnknownType{})
	case 1:
		return canonical[0]
	}
	return a.internType(&IntersectionType{Members: canonical})
}

func (a *TypeArena) Negation(ty TypeId) TypeId {
	return a.internType(&NegationType{Negated: a.internType(ty)})
}

func (a *TypeArena) Table(props map[string]Property, indexer *TableIndexer, state TableState) TypeId {
	copied := make(map[string]Property, len(props))
	for name, prop := range props {
		copied[name] = prop
	}
	if indexer != nil {
		indexer = &TableIndexer{Key: indexer.Key, Value: indexer.Value}
	}
	return a.internType(&TableType{Props: copied, Indexer: indexer, State: state})
}

func (a *TypeArena) Metatable(table, metatable TypeId) TypeId {
	return a.internType(&MetatableType{Table: table, Metatable: metatable})
}

func (a *TypeArena) Class(name string, parent TypeId, props map[string]Property, metatable TypeId) TypeId {
	copied := make(map[string]Property, len(props))
	for propName, prop := range props {
		copied[propName] = prop
	}
	return a.internType(&ClassType{Name: name, Parent: parent, Props: copied, Metatable: metatable})
}

func (a *TypeArena) Function(generics []TypeId, genericPacks []TypePackId, args, rets TypePackId) TypeId {
	return a.internType(&FunctionType{
		Generics:     generics,
		GenericPacks: genericPacks,
		Args:         args,
		Rets:         rets,
	})
}

// FreshGeneric allocates a new rigid type variable. Callers make it flexible
// by listing it in a FunctionType's Generics.
func (a *TypeArena) FreshGeneric(name string) TypeId {
	g := &GenericType{Name: name}
	a.adopt(g)
	g.id = g.seq
	a.types[g.Hash()] = g
	return g
}

func (a *TypeArena) FreshGenericPack(name string) TypePackId {
	g := &GenericTypePack{Name: name}
	a.adopt(g)
	g.id = g.seq
	a.packs[g.Hash()] = g
	return g
}

func (a *TypeArena) FamilyInstance(family *TypeFamily, typeArgs []TypeId, packArgs []TypePackId) TypeId {
	return a.internType(&TypeFamilyInstanceType{
		Family:   family,
		TypeArgs: typeArgs,
		PackArgs: packArgs,
	})
}

// Pack builds a canonical pack: a pack tail is flattened into the head so
// tails are only ever nil, variadic, or generic.
func (a *TypeArena) Pack(head []TypeId, tail TypePackId) TypePackId {
	flatHead := make([]TypeId, 0, len(head))
	flatHead = append(flatHead, head...)
	for {
		inner, ok := tail.(*TypePack)
		if !ok {
			break
		}
		flatHead = append(flatHead, inner.Head...)
		tail = inner.Tail
	}
	return a.internPack(&TypePack{Head: flatHead, Tail: tail})
}

func (a *TypeArena) Variadic(ty TypeId) TypePackId {
	return a.internPack(&VariadicTypePack{Ty: a.internType(ty)})
}

func (a *TypeArena) EmptyPack() TypePackId {
	return a.Pack(nil, nil)
}

// slicePack drops the first from elements of a pack's head, keeping the tail.
func (a *TypeArena) slicePack(p *TypePack, from int) TypePackId {
	if from >= len(p.Head) {
		return a.Pack(nil, p.Tail)
	}
	return a.Pack(p.Head[from:], p.Tail)
}

// PrependPack pushes ty in front of a pack, for method receivers and __call
// unfolding.
func (a *TypeArena) PrependPack(ty TypeId, pack TypePackId) TypePackId {
	switch p := pack.(type) {
	case nil:
		return a.Pack([]TypeId{ty}, nil)
	case *TypePack:
		head := make([]TypeId, 0, len(p.Head)+1)
		head = append(head, ty)
		head = append(head, p.Head...)
		return a.Pack(head, p.Tail)
	default:
		return a.Pack([]TypeId{ty}, pack)
	}
}
