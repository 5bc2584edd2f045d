package site

import "net/url"

// Base is embedded by site plugins. It serves the descriptor and offers no
// canonizer or extractor; plugins override the factories they support.
type Base struct {
	descriptor Descriptor
}

func NewBase(d Descriptor) Base {
	return Base{descriptor: d}
}

func (b Base) Descriptor() Descriptor {
	return b.descriptor
}

func (Base) NewCanonizer(*url.URL) (Canonizer, bool) {
	return nil, false
}

func (Base) NewExtractor(*url.URL) (Extractor, bool) {
	return nil, false
}
