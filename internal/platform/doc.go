// Package platform reaches the host platform's update installer.
//
// Platform is the narrow interface the installer service depends on.
// CommandPlatform implements it by running the platform's own update tool and
// decoding its YAML output; Switcher models the scope in which platform
// security checks are disabled.
package platform
