package process

// ProcessConfig declares an external program that action nodes may run by name.
type ProcessConfig struct {
	Name        string            `koanf:"name" yaml:"name" json:"name"`
	Command     string            `koanf:"command" yaml:"command" json:"command"`
	Args        []string          `koanf:"args" yaml:"args" json:"args"`
	Environment map[string]string `koanf:"env" yaml:"env" json:"env"`
	Description string            `koanf:"description" yaml:"description" json:"description"`
}
