package config

type TextractConfig struct {
	Region        string  `yaml:"region"`
	Endpoint      string  `yaml:"endpoint"`
	AccessKey     string  `yaml:"access_key"`
	SecretKey     string  `yaml:"secret_key"`
	MinConfidence float32 `yaml:"min_confidence"`
}

func (c *TextractConfig) applyEnv() {
	setString(&c.Region, "AWS_REGION")
	setString(&c.Endpoint, "AWS_ENDPOINT")
	setString(&c.AccessKey, "AWS_ACCESS_KEY")
	setString(&c.SecretKey, "AWS_SECRET_KEY")
}
