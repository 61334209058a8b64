package json_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionjson/unionjson/json"
	"gopkg.in/yaml.v3"
)

func TestYAMLToJSON_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		yamlInput    string
		expectedJSON string
		indentation  int
	}{
		{
			name:      "simple scalar string",
			yamlInput: `hello world`,
			expectedJSON: `"hello world"
`,
			indentation: 2,
		},
		{
			name:      "simple scalar number",
			yamlInput: `42`,
			expectedJSON: `42
`,
			indentation: 2,
		},
		{
			name:      "simple scalar boolean",
			yamlInput: `true`,
			expectedJSON: `true
`,
			indentation: 2,
		},
		{
			name: "simple object",
			yamlInput: `name: John
age: 30`,
			expectedJSON: `{
  "name": "John",
  "age": 30
}
`,
			indentation: 2,
		},
		{
			name: "nested object",
			yamlInput: `person:
  name: John
  age: 30
  address:
    city: New York
    zip: 10001`,
			expectedJSON: `{
  "person": {
    "name": "John",
    "age": 30,
    "address": {
      "city": "New York",
      "zip": 10001
    }
  }
}
`,
			indentation: 2,
		},
		{
			name: "simple array",
			yamlInput: `- apple
- banana
- cherry`,
			expectedJSON: `[
  "apple",
  "banana",
  "cherry"
]
`,
			indentation: 2,
		},
		{
			name: "array of objects",
			yamlInput: `- name: John
  age: 30
- name: Jane
  age: 25`,
			expectedJSON: `[
  {
    "name": "John",
    "age": 30
  },
  {
    "name": "Jane",
    "age": 25
  }
]
`,
			indentation: 2,
		},
		{
			name: "mixed types in object",
			yamlInput: `string: hello
number: 42
boolean: true
null_value: null
array:
  - 1
  - 2
  - 3
object:
  nested: value`,
			expectedJSON: `{
  "string": "hello",
  "number": 42,
  "boolean": true,
  "null_value": null,
  "array": [
    1,
    2,
    3
  ],
  "object": {
    "nested": "value"
  }
}
`,
			indentation: 2,
		},
		{
			name: "preserves key order",
			yamlInput: `zebra: last
apple: first
middle: second`,
			expectedJSON: `{
  "zebra": "last",
  "apple": "first",
  "middle": "second"
}
`,
			indentation: 2,
		},
		{
			name: "custom indentation - 4 spaces",
			yamlInput: `name: John
age: 30`,
			expectedJSON: `{
    "name": "John",
    "age": 30
}
`,
			indentation: 4,
		},
		{
			name: "custom indentation - 0 spaces (compact)",
			yamlInput: `name: John
age: 30`,
			expectedJSON: `{"name":"John","age":30}
`,
			indentation: 0,
		},
		{
			name:      "empty object",
			yamlInput: `{}`,
			expectedJSON: `{}
`,
			indentation: 2,
		},
		{
			name:      "empty array",
			yamlInput: `[]`,
			expectedJSON: `[]
`,
			indentation: 2,
		},
		{
			name: "numeric keys converted to strings",
			yamlInput: `1: one
2: two
3: three`,
			expectedJSON: `{
  "1": "one",
  "2": "two",
  "3": "three"
}
`,
			indentation: 2,
		},
		{
			name: "yaml anchor and alias",
			yamlInput: `defaults: &defaults
  timeout: 30
repeat: *defaults`,
			expectedJSON: `{
  "defaults": {
    "timeout": 30
  },
  "repeat": {
    "timeout": 30
  }
}
`,
			indentation: 2,
		},
		{
			name: "json input round trips",
			yamlInput: `{"type": "FOO", "data": {"value": "test"}}`,
			expectedJSON: `{"type":"FOO","data":{"value":"test"}}
`,
			indentation: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var node yaml.Node
			err := yaml.Unmarshal([]byte(tt.yamlInput), &node)
			require.NoError(t, err, "failed to parse YAML input")

			var buffer bytes.Buffer
			err = json.YAMLToJSON(&node, tt.indentation, &buffer)
			require.NoError(t, err, "YAMLToJSON should not return error")

			actualJSON := buffer.String()
			assert.Equal(t, tt.expectedJSON, actualJSON, "JSON output should match expected")
		})
	}
}

func TestYAMLToJSON_NilNode_Success(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	err := json.YAMLToJSON(nil, 2, &buffer)
	require.NoError(t, err)
	assert.Equal(t, "null\n", buffer.String())
}

func TestYAMLToJSON_Error(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	err := json.YAMLToJSON(&yaml.Node{}, 2, &buffer)
	assert.ErrorContains(t, err, "unknown node kind")
}
