package engine

import (
	"strings"

	"github.com/GreyCorbel/ExoHelper/pkg/exo"
)

// metadataMarker appears in the name of every service-internal metadata
// property.
const metadataMarker = "@"

// projector strips service-internal metadata properties from records. The
// record schema is uniform across pages of one call, so the set of
// properties to strip is computed once from the first record and reused.
type projector struct {
	enabled  bool
	computed bool
	strip    []string
}

func newProjector(enabled bool) *projector {
	return &projector{enabled: enabled}
}

// apply removes metadata properties from every record in place.
func (p *projector) apply(records []exo.Record) {
	if !p.enabled || len(records) == 0 {
		return
	}

	if !p.computed {
		for key := range records[0] {
			if strings.Contains(key, metadataMarker) {
				p.strip = append(p.strip, key)
			}
		}

		p.computed = true
	}

	if len(p.strip) == 0 {
		return
	}

	for _, record := range records {
		for _, key := range p.strip {
			delete(record, key)
		}
	}
}
