package tools

// Config is the common configuration shared by tools.
type Config struct {
	// name is the registry name of the tool
	name string
	// description tells the model what the tool is for
	description string
}

func (c *Config) SetName(v string) {
	c.name = v
}

func (c Config) Name() string {
	return c.name
}

func (c *Config) SetDescription(v string) {
	c.description = v
}

func (c Config) Description() string {
	return c.description
}

type Option func(c *Config)

func WithName(name string) Option {
	return func(c *Config) {
		c.SetName(name)
	}
}

func WithDescription(desc string) Option {
	return func(c *Config) {
		c.SetDescription(desc)
	}
}
