package routesfile

// File is the top-level structure of routes.yaml
type File struct {
	Routes []Entry `yaml:"routes"`
}

// Entry declares one local port portal should expose through the proxy
type Entry struct {
	Port int64  `yaml:"port"`
	Name string `yaml:"name,omitempty"` // informational only
}
