package dti

import "fmt"

// Match is the outcome of matching a config DTI against a target DTI.
type Match struct {
	// OK is true if the config satisfies the target.
	OK bool

	// Message describes why the match failed. It is empty on success.
	Message string

	Config        string
	ConfigType    []string
	ConfigVersion Version

	Target        string
	TargetType    []string
	TargetVersion Version
}

// Check matches the DTI of a configuration against a target DTI. Matching
// is asymmetric: the config may not be more or less specific than the
// target unless a trailing "*" segment allows it, the major versions must
// agree and the config minor version must be at least the target's.
// Unspecified version components match anything.
func Check(config, target string) (Match, error) {
	cfg, err := Split(config)
	if err != nil {
		return Match{}, err
	}

	trg, err := Split(target)
	if err != nil {
		return Match{}, err
	}

	m := Match{
		OK:            true,
		Config:        config,
		ConfigType:    cfg.Type,
		ConfigVersion: cfg.Version,
		Target:        target,
		TargetType:    trg.Type,
		TargetVersion: trg.Version,
	}

	if msg := matchType(config, cfg.Type, target, trg.Type); msg != "" {
		m.OK = false
		m.Message = msg
		return m, nil
	}

	if msg := matchVersion(config, cfg.Version, target, trg.Version); msg != "" {
		m.OK = false
		m.Message = msg
	}

	return m, nil
}

// IsMatch reports whether config satisfies target. Malformed DTIs never match.
func IsMatch(config, target string) bool {
	m, err := Check(config, target)
	if err != nil {
		return false
	}

	return m.OK
}

func matchType(config string, cfg []string, target string, trg []string) string {
	for i := range trg {
		if i >= len(cfg) {
			return fmt.Sprintf("Target type '%s' is more specific than config type '%s'.", target, config)
		}

		if !(isWildcard(trg[i]) || isWildcard(cfg[i]) || trg[i] == cfg[i]) {
			return fmt.Sprintf("Target type '%s' does not match config type '%s'.", target, config)
		}

		// a trailing "*" on either side leaves the remainder unconstrained
		if (i+1 == len(trg) && trg[i] == WildcardAny) || (i+1 == len(cfg) && cfg[i] == WildcardAny) {
			return ""
		}

		if i+1 == len(trg) && i+1 < len(cfg) {
			return fmt.Sprintf("Config type '%s' is more specific than target type '%s'.", config, target)
		}
	}

	return ""
}

func matchVersion(config string, cfg Version, target string, trg Version) string {
	if !(cfg.Major < 0 || trg.Major < 0 || cfg.Major == trg.Major) {
		return fmt.Sprintf("Major versions of target type '%s' and config type '%s' are incompatible", target, config)
	}

	if !(cfg.Minor < 0 || trg.Minor < 0 || trg.Minor <= cfg.Minor) {
		return fmt.Sprintf("Minor versions of target type '%s' and config type '%s' are incompatible", target, config)
	}

	return ""
}

func isWildcard(seg string) bool {
	return seg == WildcardAny || seg == WildcardSingle
}
