package bouncer

//go:generate go tool enumer -type Polarity -trimprefix Polarity -transform lower -yaml -output polarity.gen.go

// Polarity selects between granting and forbidding an ability.
type Polarity int

const (
	PolarityAllow Polarity = iota
	PolarityForbid
)

func (p Polarity) forbidden() bool {
	return p == PolarityForbid
}
