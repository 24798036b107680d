package config

import (
	"gopkg.in/yaml.v3"
)

// File is a parsed fixture file.
//
// A fixture is a document with log, include and rules keys, a single rule
// mapping, or a list of rules:
//
//	log: {level: debug, format: json}
//	include: ["fixtures/**/*.yaml"]
//	rules:
//	  - host: example.org
//	    method: get
//	    path: /users/:id
//	    times: 2
//	    response: {status: 200, headers: {X-A: b}, json: {id: 1}}
//	    expect: {headers: {Authorization: "Bearer ${TOKEN}"}}
type File struct {
	// Log configures the logger returned by File.Logger.
	Log *LogConfig `yaml:"log,omitempty"`

	// Include lists glob patterns of further fixture files, relative to
	// this file. "**" matches across directories.
	Include []string `yaml:"include,omitempty"`

	// Rules are applied in order.
	Rules []RuleConfig `yaml:"rules,omitempty"`

	// Path is the file the fixture was loaded from, if any.
	Path string `yaml:"-"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`
	Format    string `yaml:"format,omitempty"`
	AddSource bool   `yaml:"addSource,omitempty"`
}

// RuleConfig describes one interception rule.
type RuleConfig struct {
	// Host is matched exactly; empty matches any host.
	Host string `yaml:"host,omitempty"`

	// Method is matched case-insensitively; empty matches any method.
	Method string `yaml:"method,omitempty"`

	// Path is a literal path, a route template or a glob; empty matches any path.
	Path string `yaml:"path,omitempty"`

	// Times is the number of requests served; 0 means once.
	Times int `yaml:"times,omitempty"`

	Response *ResponseConfig `yaml:"response,omitempty"`
	Expect   *ExpectConfig   `yaml:"expect,omitempty"`
}

// ResponseConfig is the simulated response.
type ResponseConfig struct {
	Status  int               `yaml:"status,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	// Body is sent verbatim. Mutually exclusive with JSON.
	Body *string `yaml:"body,omitempty"`
	// JSON is serialized and sent as the body.
	JSON any `yaml:"json,omitempty"`
}

// ExpectConfig lists expectations on matching requests.
type ExpectConfig struct {
	Status  int               `yaml:"status,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	// Body is the exact expected body. Mutually exclusive with JSON.
	Body *string `yaml:"body,omitempty"`
	// JSON is serialized and compared with the body as text.
	JSON any `yaml:"json,omitempty"`
	// JSONPath maps JSONPath expressions to expected values.
	JSONPath map[string]any `yaml:"jsonPath,omitempty"`
	// Schema is a JSON Schema document the body must validate against.
	Schema any `yaml:"schema,omitempty"`
	// Condition is a boolean expression over the request.
	Condition string `yaml:"condition,omitempty"`
}

// UnmarshalYAML accepts a fixture document, a single rule or a list of rules.
func (f *File) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var rules []RuleConfig
		if err := node.Decode(&rules); err != nil {
			return err
		}
		f.Rules = rules
		return nil
	}

	if node.Kind == yaml.MappingNode && !isDocument(node) {
		var rule RuleConfig
		if err := node.Decode(&rule); err != nil {
			return err
		}
		f.Rules = []RuleConfig{rule}
		return nil
	}

	// Decode through an alias to avoid recursing into UnmarshalYAML.
	type fileAlias File
	return node.Decode((*fileAlias)(f))
}

// isDocument reports whether a mapping node has any top-level File key.
func isDocument(node *yaml.Node) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "log", "include", "rules":
			return true
		}
	}
	return false
}
