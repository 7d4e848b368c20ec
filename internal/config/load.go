package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Error codes for config loading.
const (
	ErrCodeNotFound    = "CONFIG_NOT_FOUND"
	ErrCodeReadFailed  = "CONFIG_READ_FAILED"
	ErrCodeBuildFailed = "CONFIG_BUILD_FAILED"
	ErrCodeInvalid     = "CONFIG_INVALID"
)

// LoadError is a fatal problem with the config directory or settings file.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// loader carries one CUE context and the compiled schema.
type loader struct {
	ctx    *cue.Context
	schema cue.Value
}

func newLoader() (*loader, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Path: "schema.cue", Message: "compiling embedded schema", Err: err}
	}
	return &loader{ctx: ctx, schema: schema}, nil
}

func (l *loader) def(name string) cue.Value {
	return l.schema.LookupPath(cue.ParsePath(name))
}

// Default returns the settings obtained from the schema defaults alone.
func Default() (*Config, error) {
	l, err := newLoader()
	if err != nil {
		return nil, err
	}
	s, err := l.decodeSettings(l.def("#Settings"), "")
	if err != nil {
		return nil, err
	}
	return &Config{Settings: *s}, nil
}

// Load reads settings and zone lists from dir. A missing settings file
// yields schema defaults; missing zone list files yield empty lists.
// Invalid zone entries are skipped and reported in issues.
func Load(dir string) (*Config, []Issue, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Path: dir, Message: "config directory not accessible", Err: err}
	}
	if !info.IsDir() {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Path: dir, Message: "not a directory"}
	}

	l, err := newLoader()
	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{}
	settingsVal := l.def("#Settings")
	settingsPath := ""
	for _, name := range []string{SettingsCUE, SettingsJSON} {
		p := filepath.Join(dir, name)
		user, found, err := l.compileFile(p)
		if err != nil {
			return nil, nil, err
		}
		if found {
			settingsVal = settingsVal.Unify(user)
			settingsPath = p
			cfg.Sources = append(cfg.Sources, p)
			break
		}
	}

	s, err := l.decodeSettings(settingsVal, settingsPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Settings = *s

	keywordFile, idFile := ZoneTypesKeywordPath, ZoneTypesEDIDPath
	if s.Zones.UseMorrowlootZoneBalance {
		keywordFile, idFile = ZoneTypesKeywordMLUPath, ZoneTypesEDIDMLUPath
	}

	var issues []Issue
	for _, zf := range []struct {
		name string
		dst  *ZoneList
	}{
		{keywordFile, &cfg.ZonesByKeyword},
		{idFile, &cfg.ZonesByID},
	} {
		p := filepath.Join(dir, zf.name)
		list, found, listIssues, err := l.loadZoneList(p)
		if err != nil {
			return nil, nil, err
		}
		issues = append(issues, listIssues...)
		if found {
			cfg.Sources = append(cfg.Sources, p)
			*zf.dst = list
		}
	}

	return cfg, issues, nil
}

// compileFile compiles a CUE or JSON file. found is false if the file does
// not exist.
func (l *loader) compileFile(path string) (cue.Value, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cue.Value{}, false, nil
	}
	if err != nil {
		return cue.Value{}, false, &LoadError{Code: ErrCodeReadFailed, Path: path, Message: "reading file", Err: err}
	}
	v := l.ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cue.Value{}, false, &LoadError{Code: ErrCodeBuildFailed, Path: path, Message: "compiling file", Err: err}
	}
	return v, true, nil
}

func (l *loader) decodeSettings(v cue.Value, path string) (*Settings, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalid, Path: path, Message: "settings do not satisfy schema", Err: err}
	}
	var s Settings
	if err := v.Decode(&s); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalid, Path: path, Message: "decoding settings", Err: err}
	}
	if s.ZoneMaxLevels == nil {
		s.ZoneMaxLevels = map[string]float64{}
	}
	return &s, nil
}

// loadZoneList decodes a zone list entry by entry so one bad entry skips
// only itself.
func (l *loader) loadZoneList(path string) (ZoneList, bool, []Issue, error) {
	v, found, err := l.compileFile(path)
	if err != nil || !found {
		return ZoneList{}, found, nil, err
	}
	if err := l.def("#ZoneList").Unify(v).Validate(); err != nil {
		return ZoneList{}, false, nil, &LoadError{Code: ErrCodeInvalid, Path: path, Message: "zone list must be an object with a zones list", Err: err}
	}

	zones := v.LookupPath(cue.ParsePath("zones"))
	if !zones.Exists() {
		return ZoneList{}, true, nil, nil
	}
	iter, err := zones.List()
	if err != nil {
		return ZoneList{}, false, nil, &LoadError{Code: ErrCodeInvalid, Path: path, Message: "zones is not a list", Err: err}
	}

	entryDef := l.def("#ZoneEntry")
	var list ZoneList
	var issues []Issue
	for i := 0; iter.Next(); i++ {
		entry := entryDef.Unify(iter.Value())
		if err := entry.Validate(cue.Concrete(true)); err != nil {
			issues = append(issues, Issue{Source: path, Entry: fmt.Sprintf("zones[%d]", i), Message: err.Error()})
			continue
		}
		var ze ZoneEntry
		if err := entry.Decode(&ze); err != nil {
			issues = append(issues, Issue{Source: path, Entry: fmt.Sprintf("zones[%d]", i), Message: err.Error()})
			continue
		}
		list.Zones = append(list.Zones, ze)
	}
	return list, true, issues, nil
}
