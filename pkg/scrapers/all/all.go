// Package all registers every built-in site plugin with the default
// registry. Import it for its side effects.
package all

import (
	_ "cleanuri/pkg/scrapers/billa"
	_ "cleanuri/pkg/scrapers/hofer"
	_ "cleanuri/pkg/scrapers/lidl"
	_ "cleanuri/pkg/scrapers/spar"
)
