package gitrepo

import (
	"fmt"
	"strings"
)

const (
	httpsProtocolPrefixConstant         = "https://"
	gitUserPrefixConstant               = "git@"
	sshProtocolPrefixConstant           = "ssh://"
	sshPathDelimiterConstant            = ":"
	sshUserDelimiterConstant            = "@"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	credentialDelimiterConstant         = ":"
	authenticatedURLTemplateConstant    = "%s%s@%s/%s%s"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	requiredValueMessageConstant        = "value required"
	minimumHTTPSPathComponentCountConst = 3
	minimumSSHPathSegmentCountConstant  = 2
	oauthCredentialUserNameConstant     = "oauth2"
	oauthCredentialTemplateConstant     = "%s%s%s"
	emptyRepositoryNameMessageConstant  = "empty repository name"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
)

// RemoteURL represents a structured git remote URL. ProjectPath holds the full
// namespace below the host, including nested GitLab groups, without the .git suffix.
type RemoteURL struct {
	Protocol    RemoteProtocol
	Host        string
	ProjectPath string
	Repository  string
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL converts a textual remote URL into a structured representation.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	if strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant) {
		return parseSSHRemote(strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	}
	if strings.HasPrefix(trimmedRemote, gitUserPrefixConstant) {
		return parseSSHRemote(trimmedRemote)
	}
	if strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant) {
		return parseHTTPSRemote(strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	}

	return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
}

func parseSSHRemote(remote string) (RemoteURL, error) {
	userSplitIndex := strings.Index(remote, sshUserDelimiterConstant)
	if userSplitIndex == -1 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	hostAndPath := remote[userSplitIndex+1:]
	pathSplitIndex := strings.Index(hostAndPath, sshPathDelimiterConstant)
	var host string
	var path string
	if pathSplitIndex == -1 {
		slashIndex := strings.Index(hostAndPath, pathSeparatorConstant)
		if slashIndex == -1 {
			return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
		}
		host = hostAndPath[:slashIndex]
		path = hostAndPath[slashIndex+1:]
	} else {
		host = hostAndPath[:pathSplitIndex]
		path = hostAndPath[pathSplitIndex+1:]
	}

	projectPath, repository, splitError := splitProjectPath(path)
	if splitError != nil {
		return RemoteURL{}, splitError
	}
	return RemoteURL{Protocol: RemoteProtocolSSH, Host: host, ProjectPath: projectPath, Repository: repository}, nil
}

func parseHTTPSRemote(remote string) (RemoteURL, error) {
	pathComponents := strings.Split(remote, pathSeparatorConstant)
	if len(pathComponents) < minimumHTTPSPathComponentCountConst {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	host := pathComponents[0]
	projectPath, repository, splitError := splitProjectPath(strings.Join(pathComponents[1:], pathSeparatorConstant))
	if splitError != nil {
		return RemoteURL{}, splitError
	}
	return RemoteURL{Protocol: RemoteProtocolHTTPS, Host: host, ProjectPath: projectPath, Repository: repository}, nil
}

// splitProjectPath separates the .git-stripped namespace path from the final
// repository segment. GitLab namespaces may nest arbitrarily deep.
func splitProjectPath(path string) (string, string, error) {
	normalizedPath := strings.TrimSuffix(strings.TrimSpace(path), gitSuffixConstant)
	segments := strings.Split(normalizedPath, pathSeparatorConstant)
	if len(segments) < minimumSSHPathSegmentCountConstant {
		return "", "", RemoteURLParseError{Input: path, Message: invalidRemoteURLMessageConstant}
	}

	repository := segments[len(segments)-1]
	if len(repository) == 0 {
		return "", "", RemoteURLParseError{Input: path, Message: emptyRepositoryNameMessageConstant}
	}
	return normalizedPath, repository, nil
}

// MatchesHost reports whether the remote parses cleanly and points at the host.
func MatchesHost(remote string, host string) bool {
	parsedRemote, parseError := ParseRemoteURL(remote)
	if parseError != nil {
		return false
	}
	return strings.EqualFold(parsedRemote.Host, strings.TrimSpace(host))
}

// BuildAuthenticatedCloneURL embeds an OAuth token into an HTTPS remote URL so
// clone operations can authenticate without prompting.
func BuildAuthenticatedCloneURL(remote string, token string) (string, error) {
	parsedRemote, parseError := ParseRemoteURL(remote)
	if parseError != nil {
		return "", parseError
	}

	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return fmt.Sprintf("%s%s/%s%s", httpsProtocolPrefixConstant, parsedRemote.Host, parsedRemote.ProjectPath, gitSuffixConstant), nil
	}

	credential := fmt.Sprintf(oauthCredentialTemplateConstant, oauthCredentialUserNameConstant, credentialDelimiterConstant, trimmedToken)
	return fmt.Sprintf(authenticatedURLTemplateConstant, httpsProtocolPrefixConstant, credential, parsedRemote.Host, parsedRemote.ProjectPath, gitSuffixConstant), nil
}

// BuildDestinationPushURL formats the HTTPS push URL for a destination repository.
func BuildDestinationPushURL(host string, organization string, slug string) (string, error) {
	trimmedHost := strings.TrimSpace(host)
	trimmedOrganization := strings.TrimSpace(organization)
	trimmedSlug := strings.TrimSpace(slug)
	if len(trimmedHost) == 0 || len(trimmedOrganization) == 0 || len(trimmedSlug) == 0 {
		return "", RemoteURLParseError{Input: trimmedOrganization + pathSeparatorConstant + trimmedSlug, Message: requiredValueMessageConstant}
	}
	return httpsProtocolPrefixConstant + trimmedHost + pathSeparatorConstant + trimmedOrganization + pathSeparatorConstant + trimmedSlug + gitSuffixConstant, nil
}
