package encoder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"zilkit/internal/config"
	"zilkit/internal/preset"
)

// ErrUnsupportedCodec reports a profile whose codec tag is none of the three
// supported families. Command building fails fast; no partial argv is built.
var ErrUnsupportedCodec = errors.New("unsupported codec")

// Fixed color-space normalization: full-range sRGB-gamma Rec.709 in,
// TV-range Rec.709 out. The parameter set is matched against a known-good
// Media Encoder comparison and must not change.
const zscaleFilter = "zscale=" +
	"rangein=full:" +
	"primariesin=bt709:" +
	"transferin=iec61966-2-1:" +
	"matrixin=bt709:" +
	"range=tv:" +
	"primaries=bt709:" +
	"transfer=bt709:" +
	"matrix=bt709"

// defaultSequenceFramerate is used when no framerate is configured for an
// image-sequence encode. Movie encodes keep the source timing instead.
const defaultSequenceFramerate = 30

// BuildSequenceArgs constructs the full encoder argv for converting an image
// sequence to video. inputPattern is the %0Nd-style path template and
// startNumber the first frame's numeric value.
func BuildSequenceArgs(ffmpegPath, inputPattern string, startNumber int, outputPath string, eff config.Effective) ([]string, error) {
	codec, err := codecArgs(eff)
	if err != nil {
		return nil, err
	}

	fr := eff.Framerate
	if fr == 0 {
		fr = defaultSequenceFramerate
	}

	args := []string{ffmpegPath, "-y"}
	args = append(args, "-framerate", strconv.Itoa(fr))
	args = append(args, "-f", "image2", "-start_number", strconv.Itoa(startNumber), "-i", inputPattern)
	args = append(args, filterArgs(eff)...)
	args = append(args, "-r", strconv.Itoa(fr))
	args = append(args, codec...)
	args = append(args, outputPath)
	return args, nil
}

// BuildMovieArgs constructs the encoder argv for re-encoding an existing
// movie file. The audio stream is copied, never re-encoded. A framerate is
// only forced when explicitly configured.
func BuildMovieArgs(ffmpegPath, inputPath, outputPath string, eff config.Effective) ([]string, error) {
	codec, err := codecArgs(eff)
	if err != nil {
		return nil, err
	}

	args := []string{ffmpegPath, "-y", "-i", inputPath}
	args = append(args, filterArgs(eff)...)
	if eff.Framerate > 0 {
		args = append(args, "-r", strconv.Itoa(eff.Framerate))
	}
	args = append(args, codec...)
	args = append(args, "-c:a", "copy")
	args = append(args, outputPath)
	return args, nil
}

// filterArgs returns the -vf argument pair, or nothing when no filter
// applies. HAP frames are assumed already in target format, so the color
// chain is bypassed entirely for that family.
func filterArgs(eff config.Effective) []string {
	var filters []string

	if scale := eff.Scale(); scale != 1.0 {
		s := strconv.FormatFloat(scale, 'g', -1, 64)
		filters = append(filters, fmt.Sprintf("scale=iw*%s:ih*%s", s, s))
	}

	if eff.Profile.Codec != preset.CodecHAP {
		filters = append(filters, zscaleFilter)
		filters = append(filters, "format="+eff.PixFmt)
	}

	if len(filters) == 0 {
		return nil
	}
	return []string{"-vf", strings.Join(filters, ",")}
}

// codecArgs returns the codec-specific parameter block for the profile's
// family. The three families are mutually exclusive; anything else errors.
func codecArgs(eff config.Effective) ([]string, error) {
	switch eff.Profile.Codec {
	case preset.CodecH264:
		return []string{
			"-c:v", "libx264",
			"-crf", strconv.Itoa(eff.CRF),
			"-preset", eff.SpeedPreset,
			"-profile:v", "high",
			"-level", "4.2",
			"-pix_fmt", eff.PixFmt,
			"-movflags", "+faststart",
		}, nil
	case preset.CodecProRes:
		return []string{
			"-c:v", "prores_ks",
			"-profile:v", strconv.Itoa(eff.Profile.ProRes.ProfileOrdinal),
			"-vendor", eff.Profile.ProRes.Vendor,
			"-pix_fmt", eff.PixFmt,
		}, nil
	case preset.CodecHAP:
		chunks := eff.HAPChunks
		if chunks < 1 {
			chunks = 1
		}
		return []string{
			"-c:v", "hap",
			"-format", eff.Profile.HAP.Format,
			"-chunks", strconv.Itoa(chunks),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, eff.Profile.Codec)
	}
}

// OutputName assembles the output filename
// {base}[_{suffix}][_{custom}][_{initials}].{container}. Empty parts are
// omitted; periods are stripped from the custom text so it cannot smuggle in
// an extension.
func OutputName(baseName string, p preset.Profile, customText, initials string) string {
	parts := []string{baseName}
	if p.Suffix != "" {
		parts = append(parts, p.Suffix)
	}
	if clean := strings.ReplaceAll(customText, ".", ""); clean != "" {
		parts = append(parts, clean)
	}
	if initials != "" {
		parts = append(parts, initials)
	}
	container := p.Container
	if container == "" {
		container = "mp4"
	}
	return strings.Join(parts, "_") + "." + container
}
