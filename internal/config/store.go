package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"zilkit/internal/preset"
)

//go:embed presets.json
var presetsFS embed.FS

// ErrPresetNotFound reports a preset id missing from the packaged catalog.
var ErrPresetNotFound = errors.New("preset not found")

// Overrides is a partial settings map attached either globally or to one
// preset id. Nil fields do not participate in resolution.
type Overrides struct {
	Resolution  *string `json:"resolution,omitempty"`   // "full" | "half" | "quarter" | scale | WxH
	Framerate   *int    `json:"framerate,omitempty"`    // frames per second
	CRF         *int    `json:"crf,omitempty"`          // H.264 quality factor, 18-28
	SpeedPreset *string `json:"preset,omitempty"`       // x264 speed/quality preset name
	PixFmt      *string `json:"pix_fmt,omitempty"`      // pixel format override
	HAPChunks   *int    `json:"hap_chunks,omitempty"`   // HAP chunk count, 1-8
}

// Empty reports whether no field is set.
func (o Overrides) Empty() bool {
	return o.Resolution == nil && o.Framerate == nil && o.CRF == nil &&
		o.SpeedPreset == nil && o.PixFmt == nil && o.HAPChunks == nil
}

// Validate enforces ranges at configuration time so command building never
// has to.
func (o Overrides) Validate() error {
	if o.CRF != nil && (*o.CRF < 18 || *o.CRF > 28) {
		return fmt.Errorf("crf %d out of range 18-28", *o.CRF)
	}
	if o.HAPChunks != nil && (*o.HAPChunks < 1 || *o.HAPChunks > 8) {
		return fmt.Errorf("hap chunk count %d out of range 1-8", *o.HAPChunks)
	}
	if o.Framerate != nil && *o.Framerate <= 0 {
		return fmt.Errorf("framerate %d must be positive", *o.Framerate)
	}
	return nil
}

// Conversion is one output of a multi-output batch job.
type Conversion struct {
	Preset         string `json:"preset"`
	Resolution     string `json:"resolution"`
	Framerate      int    `json:"framerate"`
	FilenameSuffix string `json:"filename_suffix"`
}

// MultiOutput is the persisted configuration for batch jobs that produce
// several differently-configured outputs per source item.
type MultiOutput struct {
	UserInitials  string       `json:"user_initials"`
	HAPChunkCount int          `json:"hap_chunk_count"`
	Conversions   []Conversion `json:"conversions"`
}

// settings is the on-disk shape of the user config file.
type settings struct {
	FFmpegPath      string               `json:"ffmpeg_path,omitempty"`
	DefaultPreset   string               `json:"default_preset,omitempty"`
	UserInitials    string               `json:"user_initials,omitempty"`
	PresetOverrides map[string]Overrides `json:"preset_overrides,omitempty"`
	GlobalOverrides Overrides            `json:"global_overrides,omitempty"`
	MultiOutput     *MultiOutput         `json:"multi_output,omitempty"`
}

// Effective is the fully resolved parameter set for one encode invocation.
// Derived, never persisted.
type Effective struct {
	Profile     preset.Profile
	Resolution  string
	Framerate   int
	CRF         int
	SpeedPreset string
	PixFmt      string
	HAPChunks   int
}

// Scale returns the resolution scale factor for the resolved resolution.
func (e Effective) Scale() float64 { return preset.ResolutionScale(e.Resolution) }

func (e *Effective) apply(o Overrides) {
	if o.Resolution != nil {
		e.Resolution = *o.Resolution
	}
	if o.Framerate != nil {
		e.Framerate = *o.Framerate
	}
	if o.CRF != nil {
		e.CRF = *o.CRF
	}
	if o.SpeedPreset != nil {
		e.SpeedPreset = *o.SpeedPreset
	}
	if o.PixFmt != nil {
		e.PixFmt = *o.PixFmt
	}
	if o.HAPChunks != nil {
		e.HAPChunks = *o.HAPChunks
	}
}

// Store is the layered configuration context: user settings from a JSON file
// plus the packaged read-only preset catalog. Construct one per run and pass
// it explicitly; there is no process-wide instance.
type Store struct {
	path     string
	settings settings
	presets  map[string]preset.Profile
}

// NewStore loads the user settings file at path and the packaged preset
// catalog. A missing or malformed settings file degrades to empty settings; a
// malformed catalog degrades to an empty preset set. Neither is an error.
func NewStore(path string) *Store {
	s := &Store{path: path}
	s.settings.PresetOverrides = map[string]Overrides{}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &s.settings); err != nil {
			slog.Warn("malformed settings file, using defaults", "path", path, "error", err)
			s.settings = settings{PresetOverrides: map[string]Overrides{}}
		} else if s.settings.PresetOverrides == nil {
			s.settings.PresetOverrides = map[string]Overrides{}
		}
	}

	data, err := presetsFS.ReadFile("presets.json")
	if err == nil {
		s.presets, err = preset.ParseCatalog(data)
	}
	if err != nil {
		slog.Warn("preset catalog unavailable", "error", err)
		s.presets = map[string]preset.Profile{}
	}
	return s
}

// Save writes the settings file, creating parent directories as needed.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Preset looks up a profile from the packaged catalog.
func (s *Store) Preset(id string) (preset.Profile, bool) {
	p, ok := s.presets[id]
	return p, ok
}

// PresetIDs returns all catalog ids, sorted.
func (s *Store) PresetIDs() []string {
	ids := make([]string, 0, len(s.presets))
	for id := range s.presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultPreset returns the configured default preset id, falling back to
// h264-mp4 when the catalog has it.
func (s *Store) DefaultPreset() string {
	if s.settings.DefaultPreset != "" {
		return s.settings.DefaultPreset
	}
	if _, ok := s.presets["h264-mp4"]; ok {
		return "h264-mp4"
	}
	return ""
}

// SetDefaultPreset persists the default preset id.
func (s *Store) SetDefaultPreset(id string) error {
	if _, ok := s.presets[id]; !ok {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, id)
	}
	s.settings.DefaultPreset = id
	return s.Save()
}

// PresetOverride returns the override set for one preset id.
func (s *Store) PresetOverride(id string) (Overrides, bool) {
	o, ok := s.settings.PresetOverrides[id]
	return o, ok
}

// SetPresetOverride validates and persists an override set for one preset.
func (s *Store) SetPresetOverride(id string, o Overrides) error {
	if _, ok := s.presets[id]; !ok {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, id)
	}
	if err := o.Validate(); err != nil {
		return err
	}
	s.settings.PresetOverrides[id] = o
	return s.Save()
}

// ClearPresetOverride removes the override set for one preset.
func (s *Store) ClearPresetOverride(id string) error {
	delete(s.settings.PresetOverrides, id)
	return s.Save()
}

// GlobalOverrides returns the global override set.
func (s *Store) GlobalOverrides() Overrides { return s.settings.GlobalOverrides }

// SetGlobalOverrides validates and persists the global override set.
func (s *Store) SetGlobalOverrides(o Overrides) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s.settings.GlobalOverrides = o
	return s.Save()
}

// ClearGlobalOverrides removes all global overrides.
func (s *Store) ClearGlobalOverrides() error {
	s.settings.GlobalOverrides = Overrides{}
	return s.Save()
}

// FFmpegPath returns the persisted encoder path, if set.
func (s *Store) FFmpegPath() string { return s.settings.FFmpegPath }

// SetFFmpegPath persists the encoder path.
func (s *Store) SetFFmpegPath(path string) error {
	s.settings.FFmpegPath = path
	return s.Save()
}

// UserInitials returns the configured initials used in output filenames. The
// multi-output config wins over the top-level setting when both exist.
func (s *Store) UserInitials() string {
	if s.settings.MultiOutput != nil && s.settings.MultiOutput.UserInitials != "" {
		return s.settings.MultiOutput.UserInitials
	}
	return s.settings.UserInitials
}

// SetUserInitials persists the top-level initials setting.
func (s *Store) SetUserInitials(initials string) error {
	s.settings.UserInitials = initials
	return s.Save()
}

// MultiOutput returns the batch job configuration, if one is set.
func (s *Store) MultiOutput() (MultiOutput, bool) {
	if s.settings.MultiOutput == nil {
		return MultiOutput{}, false
	}
	return *s.settings.MultiOutput, true
}

// SetMultiOutput persists the batch job configuration.
func (s *Store) SetMultiOutput(mo MultiOutput) error {
	if mo.HAPChunkCount < 1 {
		mo.HAPChunkCount = 1
	}
	if mo.HAPChunkCount > 8 {
		return fmt.Errorf("hap chunk count %d out of range 1-8", mo.HAPChunkCount)
	}
	for _, c := range mo.Conversions {
		if _, ok := s.presets[c.Preset]; !ok {
			return fmt.Errorf("%w: %q", ErrPresetNotFound, c.Preset)
		}
	}
	s.settings.MultiOutput = &mo
	return s.Save()
}

// HAPChunkCount returns the configured HAP chunk count (default 1).
func (s *Store) HAPChunkCount() int {
	if s.settings.MultiOutput != nil && s.settings.MultiOutput.HAPChunkCount > 0 {
		return s.settings.MultiOutput.HAPChunkCount
	}
	return 1
}

// EffectiveSettings resolves the parameter set for one encode: preset
// defaults, then that preset's override entries, then the global overrides.
// Global overrides win over preset-specific ones but are skipped entirely for
// batch (multi-output) jobs so per-conversion settings stay authoritative.
func (s *Store) EffectiveSettings(presetID string, forBatch bool) (Effective, error) {
	p, ok := s.presets[presetID]
	if !ok {
		return Effective{}, fmt.Errorf("%w: %q", ErrPresetNotFound, presetID)
	}

	// Framerate 0 means "unset": sequence encodes default it to 30, movie
	// encodes keep the source timing.
	eff := Effective{
		Profile:     p,
		Resolution:  "full",
		CRF:         23,
		SpeedPreset: "medium",
		PixFmt:      p.PixFmt,
		HAPChunks:   s.HAPChunkCount(),
	}
	if eff.PixFmt == "" && p.Codec != preset.CodecHAP {
		eff.PixFmt = "yuv420p"
	}

	if o, ok := s.settings.PresetOverrides[presetID]; ok {
		eff.apply(o)
	}
	if !forBatch {
		eff.apply(s.settings.GlobalOverrides)
	}
	return eff, nil
}
