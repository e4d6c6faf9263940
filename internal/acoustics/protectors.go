package acoustics

import "sort"

// CustomProtectorID selects user-entered H/M/L values instead of a catalogue
// entry.
const CustomProtectorID = "custom"

// ProtectorKind groups catalogue entries the way the selector lists them.
type ProtectorKind string

const (
	KindCustom  ProtectorKind = "custom"
	KindEarplug ProtectorKind = "earplug"
	KindEarmuff ProtectorKind = "earmuff"
)

// ProtectorProfile holds manufacturer-rated attenuation in dB. SNR is
// informational and takes no part in the HML method.
type ProtectorProfile struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Kind ProtectorKind `json:"kind"`
	H    float64       `json:"h"`
	M    float64       `json:"m"`
	L    float64       `json:"l"`
	SNR  float64       `json:"snr"`
}

// ProtectorCatalog is a read-only lookup of protector profiles. The zero value
// is empty; use DefaultCatalog or NewProtectorCatalog.
type ProtectorCatalog struct {
	order    []string
	profiles map[string]ProtectorProfile
}

// NewProtectorCatalog builds a catalogue from profiles, keeping their order.
// Later duplicates of an ID replace earlier ones.
func NewProtectorCatalog(profiles []ProtectorProfile) *ProtectorCatalog {
	c := &ProtectorCatalog{profiles: make(map[string]ProtectorProfile, len(profiles))}
	for _, p := range profiles {
		if _, dup := c.profiles[p.ID]; !dup {
			c.order = append(c.order, p.ID)
		}
		c.profiles[p.ID] = p
	}
	return c
}

// Get looks a profile up by identifier.
func (c *ProtectorCatalog) Get(id string) (ProtectorProfile, bool) {
	if c == nil {
		return ProtectorProfile{}, false
	}
	p, ok := c.profiles[id]
	return p, ok
}

// IDs returns the identifiers in catalogue order.
func (c *ProtectorCatalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Profiles returns a copy of every profile in catalogue order.
func (c *ProtectorCatalog) Profiles() []ProtectorProfile {
	if c == nil {
		return nil
	}
	out := make([]ProtectorProfile, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.profiles[id])
	}
	return out
}

// ByKind returns the profiles of one kind sorted by SNR, then name.
func (c *ProtectorCatalog) ByKind(kind ProtectorKind) []ProtectorProfile {
	var out []ProtectorProfile
	for _, p := range c.Profiles() {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SNR != out[j].SNR {
			return out[i].SNR < out[j].SNR
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Resolve returns the H/M/L values to evaluate. A catalogue entry supplies the
// defaults; values the user entered (non-nil) take precedence, as they do in
// the form once a protector has been picked. Unknown ids and "custom" only
// use the entered values, with absent ones counting as zero.
func (c *ProtectorCatalog) Resolve(id string, h, m, l *float64) (float64, float64, float64) {
	var p ProtectorProfile
	if id != CustomProtectorID {
		p, _ = c.Get(id)
	}
	pick := func(entered *float64, rated float64) float64 {
		if v, ok := value(entered); ok {
			return v
		}
		return rated
	}
	return pick(h, p.H), pick(m, p.M), pick(l, p.L)
}

var defaultCatalog = NewProtectorCatalog([]ProtectorProfile{
	{ID: CustomProtectorID, Name: "Custom values", Kind: KindCustom},

	// 3M disposable earplugs
	{ID: "3m_classic_small", Name: "3M E-A-R Classic Small (SNR 28 dB)", Kind: KindEarplug, H: 30, M: 24, L: 22, SNR: 28},
	{ID: "3m_classic", Name: "3M E-A-R Classic (SNR 28 dB)", Kind: KindEarplug, H: 30, M: 24, L: 22, SNR: 28},
	{ID: "3m_classic_regular", Name: "3M E-A-R Classic Regular (SNR 31 dB)", Kind: KindEarplug, H: 32, M: 28, L: 26, SNR: 31},
	{ID: "3m_yellow_neons", Name: "3M E-A-Rsoft Yellow Neons (SNR 34 dB)", Kind: KindEarplug, H: 33, M: 33, L: 30, SNR: 34},
	{ID: "3m_1100", Name: "3M 1100 (SNR 35 dB - orange earplugs)", Kind: KindEarplug, H: 33, M: 33, L: 31, SNR: 35},
	{ID: "3m_1110", Name: "3M 1110 corded (SNR 35 dB)", Kind: KindEarplug, H: 33, M: 33, L: 31, SNR: 35},
	{ID: "3m_soft_fx", Name: "3M E-A-Rsoft FX (SNR 37 dB)", Kind: KindEarplug, H: 35, M: 35, L: 32, SNR: 37},

	// 3M Peltor earmuffs
	{ID: "peltor_optime1", Name: "3M Peltor Optime I (SNR 27 dB - earmuffs)", Kind: KindEarmuff, H: 30, M: 26, L: 17, SNR: 27},
	{ID: "peltor_optime2", Name: "3M Peltor Optime II (SNR 31 dB - earmuffs)", Kind: KindEarmuff, H: 34, M: 31, L: 23, SNR: 31},
	{ID: "peltor_optime3", Name: "3M Peltor Optime III (SNR 35 dB - earmuffs)", Kind: KindEarmuff, H: 37, M: 34, L: 26, SNR: 35},
	{ID: "peltor_x5", Name: "3M Peltor X5A (SNR 37 dB - earmuffs)", Kind: KindEarmuff, H: 37, M: 36, L: 33, SNR: 37},
})

// DefaultCatalog returns the shipped manufacturer ratings. The catalogue is
// shared and must not be modified; accessors hand out copies.
func DefaultCatalog() *ProtectorCatalog { return defaultCatalog }

// GetProtectorProfile looks id up in the default catalogue.
func GetProtectorProfile(id string) (ProtectorProfile, bool) {
	return defaultCatalog.Get(id)
}
