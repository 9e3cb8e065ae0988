package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sectionComments are written above each top-level key of a generated file.
var sectionComments = map[string]string{
	"logging": "Logging\n  level: DEBUG, INFO, WARN, ERROR\n  format: text, json\n  output: stdout, stderr or a file path",
	"names": "Name canonicalization\n" +
		"  display: normalizations applied to the name as shown and sorted\n" +
		"  canonical: normalizations applied on top for comparison\n" +
		"  values: none, nfc, nfd, case_fold_unicode, case_fold_ascii\n" +
		"  e.g. canonical: [nfc, case_fold_unicode] for a case-insensitive tree",
	"tables":  "Directory hash tables\n  initial_capacity: buckets of a new directory (power of two)\n  load_factor: entries per bucket before doubling",
	"content": "Regular file content\n  type: memory\n  memory.max_file_size: bytes per file, 0 = unlimited",
	"roots":   "Root directories created at startup",
	"metrics": "Prometheus endpoint served at /metrics",
}

const configHeader = `# treefs Configuration File
#
# Values can be overridden with TREEFS_* environment variables,
# e.g. TREEFS_LOGGING_LEVEL=DEBUG.
`

// InitConfig writes a sample configuration file to the default location.
//
// Returns the path of the written file. Fails if the file exists and force
// is false.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", path)
		}
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as YAML with a comment above every
// top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	// doc is a mapping node: keys and values alternate
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.String(), nil
}
