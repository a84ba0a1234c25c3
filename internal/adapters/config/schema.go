package config

// ConfFile is the structure of the BUILD.conf.yaml file at a project
// root: the project's identity plus everything shared by its packages.
type ConfFile struct {
	Alias        string           `yaml:"alias"`
	BuildDir     string           `yaml:"buildDir"`
	Keys         []KeyDTO         `yaml:"keys"`
	Environments []EnvironmentDTO `yaml:"environments"`
	Subprojects  []SubprojectDTO  `yaml:"subprojects"`
}

// KeyDTO declares one additional environment key.
type KeyDTO struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Help string `yaml:"help"`
}

// EnvironmentDTO declares one named environment.
type EnvironmentDTO struct {
	Name string `yaml:"name"`
	// Base names an earlier environment to derive from.
	Base     string         `yaml:"base"`
	Contents map[string]any `yaml:"contents"`
}

// SubprojectDTO points at a nested project root.
type SubprojectDTO struct {
	Alias string `yaml:"alias"`
	Path  string `yaml:"path"`
}

// BuildFile is the structure of a per-package BUILD.yaml file.
type BuildFile struct {
	Targets []TargetDTO `yaml:"targets"`
}

// TargetDTO declares one target. Kind selects the constructor; the
// remaining fields are interpreted per kind.
type TargetDTO struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Env     string   `yaml:"env"`
	Sources []string `yaml:"sources"`
	Deps    []string `yaml:"deps"`

	// Local is applied to the environment the dependencies are
	// evaluated under; Extra on top of a concrete target's named
	// environment; Using merged into the delta handed to dependers.
	Local map[string]any `yaml:"local"`
	Extra map[string]any `yaml:"extra"`
	Using map[string]any `yaml:"using"`
}
