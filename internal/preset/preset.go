// Package preset defines encode profiles: packaged codec/container templates
// selected by id, with a three-way codec family split.
package preset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Codec identifies one of the supported encoder families.
type Codec string

const (
	CodecH264   Codec = "libx264"
	CodecProRes Codec = "prores_ks"
	CodecHAP    Codec = "hap"
)

// Profile is an immutable encode template from the packaged catalog.
// Common fields apply to every family; H264, ProRes and HAP carry the
// family-specific payload and are only meaningful for the matching Codec.
type Profile struct {
	ID          string
	Codec       Codec
	DisplayName string
	Suffix      string // output filename token, e.g. "h264"
	Container   string // output extension without dot, e.g. "mp4"
	PixFmt      string // empty for HAP

	ProRes ProResParams
	HAP    HAPParams
}

// ProResParams holds the prores_ks payload: a numeric quality ordinal and a
// vendor tag written into the bitstream.
type ProResParams struct {
	ProfileOrdinal int
	Vendor         string
}

// HAPParams holds the hap payload. Format is the chunk sub-variant
// ("hap", "hap_alpha", "hap_q").
type HAPParams struct {
	Format string
}

// Known reports whether the profile's codec tag is one of the three
// supported families.
func (p Profile) Known() bool {
	switch p.Codec {
	case CodecH264, CodecProRes, CodecHAP:
		return true
	}
	return false
}

// rawProfile mirrors one catalog entry on disk.
type rawProfile struct {
	Codec       string `json:"codec"`
	DisplayName string `json:"display_name"`
	Suffix      string `json:"suffix"`
	Container   string `json:"container"`
	PixFmt      string `json:"pix_fmt"`
	ProfileV    *int   `json:"profile_v"`
	Vendor      string `json:"vendor"`
	Format      string `json:"format"`
}

type rawCatalog struct {
	Presets map[string]rawProfile `json:"presets"`
}

// ParseCatalog decodes the packaged presets catalog. The on-disk shape is
// {"presets": {id: {codec, display_name, suffix, container, pix_fmt, ...}}}.
func ParseCatalog(data []byte) (map[string]Profile, error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse preset catalog: %w", err)
	}
	out := make(map[string]Profile, len(raw.Presets))
	for id, rp := range raw.Presets {
		p := Profile{
			ID:          id,
			Codec:       Codec(rp.Codec),
			DisplayName: rp.DisplayName,
			Suffix:      rp.Suffix,
			Container:   rp.Container,
			PixFmt:      rp.PixFmt,
		}
		if p.Container == "" {
			p.Container = "mp4"
		}
		switch p.Codec {
		case CodecProRes:
			if rp.ProfileV != nil {
				p.ProRes.ProfileOrdinal = *rp.ProfileV
			}
			p.ProRes.Vendor = rp.Vendor
			if p.ProRes.Vendor == "" {
				p.ProRes.Vendor = "apl0"
			}
		case CodecHAP:
			p.HAP.Format = rp.Format
			if p.HAP.Format == "" {
				p.HAP.Format = "hap"
			}
		}
		out[id] = p
	}
	return out, nil
}

// ResolutionScale converts a resolution setting string to a scale factor.
// Accepts "full" (1.0), "half" (0.5), "quarter" (0.25), a bare float, or a
// WxH string (explicit dimensions are handed to the encoder untouched, so the
// scale stays 1.0). Unrecognised values fall back to 1.0.
func ResolutionScale(resolution string) float64 {
	r := strings.ToLower(strings.TrimSpace(resolution))
	switch r {
	case "", "full":
		return 1.0
	case "half":
		return 0.5
	case "quarter":
		return 0.25
	}
	if strings.Contains(r, "x") {
		return 1.0
	}
	if f, err := strconv.ParseFloat(r, 64); err == nil && f > 0 {
		return f
	}
	return 1.0
}
