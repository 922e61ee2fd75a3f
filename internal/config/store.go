package config

import (
	"path/filepath"
)

// File names used by the configuration tiers.
const (
	GeneralConfigName  = "AutoGrader.config"
	SpecificConfigName = "AutoGrader.specific.config"
)

// Store assembles the three configuration tiers for one assignment
// directory: hardcoded defaults, the global override files, and the
// per-directory override files.
type Store struct {
	Dir      string
	General  *Set
	Specific map[string]*Set // keyed by codefile name

	globalGeneral  *Set
	globalSpecific *Set
}

// LoadGlobal builds the defaults+global tiers from the global config
// directory. Global files are applied only when present; the global tier
// is never self-healed.
func LoadGlobal(globalDir string) (general, specific *Set, warnings []string) {
	general = NewSet(GeneralSchema())
	w, _ := general.ApplyFile(filepath.Join(globalDir, GeneralConfigName), false)
	warnings = append(warnings, w...)

	specific = NewSet(SpecificSchema())
	w, _ = specific.ApplyFile(filepath.Join(globalDir, SpecificConfigName), false)
	warnings = append(warnings, w...)
	return general, specific, warnings
}

// NewStore loads the general configuration for one assignment directory
// on top of the global tier. A missing local file is written out from the
// in-memory values.
func NewStore(dir string, globalGeneral, globalSpecific *Set) (*Store, []string, error) {
	st := &Store{
		Dir:            dir,
		Specific:       map[string]*Set{},
		globalGeneral:  globalGeneral,
		globalSpecific: globalSpecific,
	}
	st.General = globalGeneral.Clone()
	warnings, err := st.General.ApplyFile(filepath.Join(dir, GeneralConfigName), true)
	if err != nil {
		return nil, warnings, err
	}
	return st, warnings, nil
}

// LoadSpecific populates the per-codefile tier for each codefile,
// self-healing any missing <codefile>.config file from the global
// specific values.
func (st *Store) LoadSpecific(codefiles []string) ([]string, error) {
	var warnings []string
	for _, cf := range codefiles {
		set := st.globalSpecific.Clone()
		w, err := set.ApplyFile(filepath.Join(st.Dir, cf+".config"), true)
		warnings = append(warnings, w...)
		if err != nil {
			return warnings, err
		}
		st.Specific[cf] = set
	}
	return warnings, nil
}

// GlobalFormat returns the global tier's file format, the fallback when a
// local format fails to parse.
func (st *Store) GlobalFormat() string {
	return st.globalGeneral.Text("file_format")
}

// WriteGeneral persists the assembled general configuration to the local
// file.
func (st *Store) WriteGeneral() error {
	return st.General.WriteFile(filepath.Join(st.Dir, GeneralConfigName))
}
