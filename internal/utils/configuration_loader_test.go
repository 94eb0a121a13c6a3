package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/buildstamp/internal/utils"
)

const (
	testEnvironmentPrefixConstant      = "TESTBUILDSTAMP"
	testLogLevelKeyConstant            = "common.log_level"
	testLogLevelEnvironmentKeyConstant = "TESTBUILDSTAMP_COMMON_LOG_LEVEL"
	testDefaultLogLevelConstant        = "info"
	testFileLogLevelConstant           = "warn"
	testEnvironmentLogLevelConstant    = "error"
	testConfigFileNameConstant         = "config.yaml"
	testConfigurationNameConstant      = "config"
	testConfigurationTypeConstant      = "yaml"
	testCaseDefaultsNameConstant       = "defaults_are_applied"
	testCaseFileNameConstant           = "config_file_overrides_defaults"
	testCaseEnvironmentNameConstant    = "environment_overrides_file"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationFileFixture struct {
	Common map[string]string `yaml:"common"`
}

func writeConfigurationFixture(testInstance *testing.T, directory string, logLevel string) string {
	testInstance.Helper()

	fixtureContent, marshalError := yaml.Marshal(configurationFileFixture{Common: map[string]string{"log_level": logLevel}})
	require.NoError(testInstance, marshalError)

	fixturePath := filepath.Join(directory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(fixturePath, fixtureContent, 0o644))
	return fixturePath
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{
			name:             testCaseDefaultsNameConstant,
			expectedLogLevel: testDefaultLogLevelConstant,
		},
		{
			name:             testCaseFileNameConstant,
			fileLogLevel:     testFileLogLevelConstant,
			expectedLogLevel: testFileLogLevelConstant,
		},
		{
			name:                testCaseEnvironmentNameConstant,
			fileLogLevel:        testFileLogLevelConstant,
			environmentLogLevel: testEnvironmentLogLevelConstant,
			expectedLogLevel:    testEnvironmentLogLevelConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			configurationDirectory := testInstance.TempDir()

			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = writeConfigurationFixture(testInstance, configurationDirectory, testCase.fileLogLevel)
			}

			if len(testCase.environmentLogLevel) > 0 {
				testInstance.Setenv(testLogLevelEnvironmentKeyConstant, testCase.environmentLogLevel)
			}

			configurationLoader := utils.NewConfigurationLoader(
				testConfigurationNameConstant,
				testConfigurationTypeConstant,
				testEnvironmentPrefixConstant,
				[]string{configurationDirectory},
			)

			var loadedFixture configurationFixture
			defaultValues := map[string]any{testLogLevelKeyConstant: testDefaultLogLevelConstant}
			loadedMetadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedFixture)
			require.NoError(testInstance, loadError)

			require.Equal(testInstance, testCase.expectedLogLevel, loadedFixture.Common.LogLevel)
			if len(configurationFilePath) > 0 {
				require.Equal(testInstance, configurationFilePath, loadedMetadata.ConfigFileUsed)
			}
		})
	}
}
