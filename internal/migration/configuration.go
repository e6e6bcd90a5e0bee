package migration

import (
	"strings"

	pathutils "github.com/plotset-corp/migration-gl-to-gh/internal/utils/path"
)

const (
	defaultSourceHostConstant           = "gitlab.com"
	defaultDestinationHostConstant      = "github.com"
	defaultRepositoryVisibilityConstant = "private"
)

var homePathExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures persisted configuration for migration commands.
type CommandConfiguration struct {
	EnableDebugLogging      bool   `mapstructure:"debug"`
	SourceHost              string `mapstructure:"source_host"`
	SourceToken             string `mapstructure:"gitlab_token"`
	DestinationHost         string `mapstructure:"github_host"`
	DestinationOrganization string `mapstructure:"github_organization"`
	StorePath               string `mapstructure:"store_path"`
	CloneDirectory          string `mapstructure:"clone_directory"`
	RepositoryVisibility    string `mapstructure:"repository_visibility"`
	RewriteAuthorName       string `mapstructure:"rewrite_author_name"`
	RewriteAuthorEmail      string `mapstructure:"rewrite_author_email"`
}

// DefaultCommandConfiguration returns baseline configuration values for migration.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		SourceHost:           defaultSourceHostConstant,
		DestinationHost:      defaultDestinationHostConstant,
		RepositoryVisibility: defaultRepositoryVisibilityConstant,
	}
}

// DefaultConfigurationValues exposes migration defaults keyed beneath the
// provided configuration section for registration with the loader.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKey + ".source_host":           defaults.SourceHost,
		configurationKey + ".github_host":           defaults.DestinationHost,
		configurationKey + ".repository_visibility": defaults.RepositoryVisibility,
	}
}

// Sanitize trims configured values and fills defaulted hosts when blank.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.SourceHost = withDefault(configuration.SourceHost, defaultSourceHostConstant)
	sanitized.SourceToken = strings.TrimSpace(configuration.SourceToken)
	sanitized.DestinationHost = withDefault(configuration.DestinationHost, defaultDestinationHostConstant)
	sanitized.DestinationOrganization = strings.TrimSpace(configuration.DestinationOrganization)
	sanitized.StorePath = homePathExpander.Expand(strings.TrimSpace(configuration.StorePath))
	sanitized.CloneDirectory = homePathExpander.Expand(strings.TrimSpace(configuration.CloneDirectory))
	sanitized.RepositoryVisibility = withDefault(configuration.RepositoryVisibility, defaultRepositoryVisibilityConstant)
	sanitized.RewriteAuthorName = strings.TrimSpace(configuration.RewriteAuthorName)
	sanitized.RewriteAuthorEmail = strings.TrimSpace(configuration.RewriteAuthorEmail)
	return sanitized
}

func withDefault(configuredValue string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(configuredValue)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
