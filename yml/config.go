package yml

import (
	"bytes"
	"context"
	"strconv"

	"gopkg.in/yaml.v3"
)

type contextKey string

func (c contextKey) String() string {
	return "yml-context-key-" + string(c)
}

const configContextKey = contextKey("config")

type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

type IndentationStyle string

const (
	IndentationStyleSpace IndentationStyle = "space"
	IndentationStyleTab   IndentationStyle = "tab"
)

func (i IndentationStyle) ToIndent() string {
	switch i {
	case IndentationStyleSpace:
		return " "
	case IndentationStyleTab:
		return "\t"
	default:
		return ""
	}
}

type Config struct {
	KeyStringStyle   yaml.Style       // The default string style to use when creating new keys
	ValueStringStyle yaml.Style       // The default string style to use when creating new nodes
	Indentation      int              // The indentation level of the document
	IndentationStyle IndentationStyle // The indentation style of the document valid for JSON only
	OutputFormat     OutputFormat     // The output format to use when marshalling
	OriginalFormat   OutputFormat     // The original input format, helps detect when we are changing formats
	TrailingNewline  bool             // Whether the original document had a trailing newline
}

var defaultConfig = &Config{
	Indentation:      2,
	IndentationStyle: IndentationStyleSpace,
	KeyStringStyle:   0,
	ValueStringStyle: 0,
	OutputFormat:     OutputFormatYAML,
}

func GetDefaultConfig() *Config {
	return defaultConfig
}

func ContextWithConfig(ctx context.Context, config *Config) context.Context {
	if config == nil {
		return ctx
	}

	return context.WithValue(ctx, configContextKey, config)
}

func GetConfigFromContext(ctx context.Context) *Config {
	val := ctx.Value(configContextKey)
	if val == nil {
		def := *defaultConfig
		return &def
	}

	cfg, ok := val.(*Config)
	if !ok {
		def := *defaultConfig
		return &def
	}

	return cfg
}

func HasConfigInContext(ctx context.Context) bool {
	_, ok := ctx.Value(configContextKey).(*Config)
	return ok
}

// GetConfigFromDoc determines the output configuration to use for a document
// from the raw data it was parsed from, retaining its format, indentation and
// trailing newline on a round trip.
func GetConfigFromDoc(data []byte, doc *yaml.Node) *Config {
	cfg := *defaultConfig

	cfg.OutputFormat, cfg.Indentation, cfg.IndentationStyle = inspectData(data)
	cfg.OriginalFormat = cfg.OutputFormat

	cfg.TrailingNewline = len(data) > 0 && data[len(data)-1] == '\n'

	// Only extract string styles from YAML documents, JSON input keeps the
	// default styles
	if cfg.OriginalFormat == OutputFormatYAML {
		getGlobalStringStyle(doc, &cfg)
	}

	return &cfg
}

func getGlobalStringStyle(doc *yaml.Node, cfg *Config) {
	const minSamples = 3

	if doc == nil {
		return
	}

	keyStyles := make([]yaml.Style, 0, minSamples)
	valueStyles := make([]yaml.Style, 0, minSamples)

	var navigate func(node *yaml.Node)
	navigate = func(node *yaml.Node) {
		if len(keyStyles) >= minSamples && len(valueStyles) >= minSamples {
			return
		}

		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) > 0 {
				navigate(node.Content[0])
			}
		case yaml.SequenceNode:
			for _, n := range node.Content {
				navigate(n)
			}
		case yaml.MappingNode:
			for i, n := range node.Content {
				if i%2 == 0 {
					if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && len(keyStyles) < minSamples {
						keyStyles = append(keyStyles, n.Style)
					}
				} else {
					navigate(n)
				}
			}
		case yaml.ScalarNode:
			// Quoted numbers need their quotes and say nothing about typical
			// string style
			if node.Tag == "!!str" && len(valueStyles) < minSamples && !looksLikeNumber(node.Value) {
				valueStyles = append(valueStyles, node.Style)
			}
		case yaml.AliasNode:
			navigate(node.Alias)
		}
	}

	navigate(doc)

	if len(keyStyles) > 0 {
		cfg.KeyStringStyle = mostCommonStyle(keyStyles)
	}
	if len(valueStyles) > 0 {
		cfg.ValueStringStyle = mostCommonStyle(valueStyles)
	}
}

func looksLikeNumber(s string) bool {
	if s == "" {
		return false
	}

	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func mostCommonStyle(styles []yaml.Style) yaml.Style {
	counts := make(map[yaml.Style]int)
	for _, style := range styles {
		counts[style]++
	}

	var maxCount int
	var mostCommon yaml.Style
	for style, count := range counts {
		if count > maxCount {
			maxCount = count
			mostCommon = style
		}
	}

	return mostCommon
}

func inspectData(data []byte) (OutputFormat, int, IndentationStyle) {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))

	foundIndentation := false
	foundDocFormat := false

	indentation := 2
	indentationStyle := IndentationStyleSpace
	docFormat := OutputFormatYAML

	// Track the minimum leading whitespace to establish baseline
	minLeadingWhitespace := -1

	for i, line := range lines {
		trimLine := bytes.TrimSpace(line)

		if len(trimLine) == 0 {
			continue
		}

		switch trimLine[0] {
		case '#':
			continue
		case '{':
			docFormat = OutputFormatJSON
			foundDocFormat = true
		default:
			currentLeading := 0
			for currentLeading < len(line) && (line[currentLeading] == ' ' || line[currentLeading] == '\t') {
				currentLeading++
			}

			if minLeadingWhitespace == -1 || currentLeading < minLeadingWhitespace {
				minLeadingWhitespace = currentLeading
			}

			// Look for indentation relative to the baseline
			if currentLeading > minLeadingWhitespace && !foundIndentation {
				leadingWhitespace := line[minLeadingWhitespace:currentLeading]

				if len(leadingWhitespace) > 0 {
					if leadingWhitespace[0] == '\t' {
						indentationStyle = IndentationStyleTab
						indentation = 0
						for _, ch := range leadingWhitespace {
							if ch == '\t' {
								indentation++
							} else {
								break
							}
						}
					} else if leadingWhitespace[0] == ' ' {
						indentationStyle = IndentationStyleSpace
						indentation = 0
						for _, ch := range leadingWhitespace {
							if ch == ' ' {
								indentation++
							} else {
								break
							}
						}
					}
					foundIndentation = true
				}
			}
		}

		// If we have found everything we need or have iterated too long we can stop
		if foundIndentation && (foundDocFormat || i > 10) {
			break
		}
	}
	return docFormat, indentation, indentationStyle
}
