package capabilities

// Capability declares one operation the reasoning service may invoke:
// a name, a description, and a JSON Schema for its parameters.
type Capability struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description" json:"description"`
	Parameters  map[string]interface{} `yaml:"parameters" json:"parameters"`
}

// capabilityFile is the shape of the embedded YAML declaration file.
type capabilityFile struct {
	Capabilities []Capability `yaml:"capabilities"`
}
