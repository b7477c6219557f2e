package staticfile

// RecordsConfig represents the top-level structure of the static records file.
type RecordsConfig struct {
	Records []RecordProps `yaml:"records"`
}

// RecordProps contains one static record definition.
type RecordProps struct {
	Host string   `yaml:"host"`           // ex: printer.local
	Port int      `yaml:"port,omitempty"` // default 80
	Type string   `yaml:"type,omitempty"` // ex: _ipp._tcp, default derived from port
	Txt  []string `yaml:"txt,omitempty"`  // ex: ["location=hallway"]
}
