package seed

//go:generate go tool enumer -type Kind -trimprefix Kind -transform lower -yaml -output kind.gen.go

// Kind is the YAML tag of a seed statement or subject reference.
type Kind int

const (
	KindAbility Kind = iota
	KindRole
	KindAllow
	KindForbid
	KindDisallow
	KindAssign
	KindRetract
	KindPrincipal
	KindEveryone
)

func (k Kind) Tag() string {
	return "!" + k.String()
}
