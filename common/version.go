package common

const Version = "0.9.0"

const UserAgent = "audiosync/" + Version

// AddUserAgentPrefix appends an operator-supplied prefix, if one is configured,
// ahead of the default user agent string sent to the remote collaborator.
func AddUserAgentPrefix(prefix string) string {
	if len(prefix) > 0 {
		return prefix + " " + UserAgent
	}
	return UserAgent
}
