package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SchemaTestSuite struct {
	suite.Suite
}

func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaTestSuite))
}

type baseCredentials struct {
	Token string `json:"token" keychain:"true"`
	Name  string `json:"name"`
}

type fullCredentials struct {
	baseCredentials

	Secret string `json:"secret,omitempty" keychain:"true"`
	Plain  string `keychain:"true"`
	Other  int    `json:"other"`
}

func (suite *SchemaTestSuite) TestToJSONSchemaInlinesProperties() {
	type TestConfig struct {
		FastPeriod int    `yaml:"fastPeriod" json:"fastPeriod" jsonschema:"title=Fast Period,minimum=1,default=5"`
		Symbol     string `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,default=RELIANCE"`
	}

	schema, err := ToJSONSchema(TestConfig{})
	suite.Require().NoError(err)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))
	suite.Equal("object", result["type"])
	suite.Contains(result["properties"], "fastPeriod")
	suite.NotContains(result, "$ref")
}

func (suite *SchemaTestSuite) TestGetKeychainFields() {
	suite.Equal([]string{"token", "secret", "Plain"}, GetKeychainFields(fullCredentials{}))
	suite.Equal([]string{"token"}, GetKeychainFields(&baseCredentials{}))
	suite.Empty(GetKeychainFields(42))
	suite.Empty(GetKeychainFields(nil))
}
