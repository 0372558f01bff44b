package stream

import (
	"github.com/kbukum/chatstream/jsonstream"
)

// Config is the file and environment form of the session options.
type Config struct {
	ChunkSize      int    `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0"`
	Policy         string `yaml:"policy" mapstructure:"policy" validate:"omitempty,oneof=stall resync"`
	StrictEOF      bool   `yaml:"strict_eof" mapstructure:"strict_eof"`
	StrictDecoding bool   `yaml:"strict_decoding" mapstructure:"strict_decoding"`
	Charset        string `yaml:"charset" mapstructure:"charset"`
}

// Options converts the config into session options.
func (c Config) Options() ([]Option, error) {
	policy, err := jsonstream.ParsePolicy(c.Policy)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithPolicy(policy)}
	if c.ChunkSize > 0 {
		opts = append(opts, WithChunkSize(c.ChunkSize))
	}
	if c.StrictEOF {
		opts = append(opts, WithStrictEOF())
	}
	if c.StrictDecoding {
		opts = append(opts, WithStrictDecoding())
	}
	if c.Charset != "" {
		if _, err := jsonstream.CharsetEncoding(c.Charset); err != nil {
			return nil, err
		}
		opts = append(opts, WithCharset(c.Charset))
	}
	return opts, nil
}
