package connector

import (
	"path/filepath"
	"strings"

	"github.com/oshokin/package-installer/internal/config"
)

// BinFolder is the web root folder the host loads connector libraries from.
const BinFolder = "bin"

// Layout names the connector files and where they live.
type Layout struct {
	// ConnectorFolder is the folder under the web root holding the descriptor.
	ConnectorFolder string
	// LibraryName is the file name of the connector library.
	LibraryName string
	// DescriptorName is the file name of the connector descriptor.
	DescriptorName string
	// IncludesFolder is the folder next to the library source holding the descriptor source.
	IncludesFolder string
}

// LayoutFromConfig builds the layout from connector settings.
func LayoutFromConfig(cfg *config.Config) Layout {
	return Layout{
		ConnectorFolder: cfg.ConnectorFolder,
		LibraryName:     cfg.LibraryName,
		DescriptorName:  cfg.DescriptorName,
		IncludesFolder:  cfg.IncludesFolder,
	}
}

// LibrarySource returns the library path inside a source folder.
func (l Layout) LibrarySource(sourceDir string) string {
	return filepath.Join(sourceDir, l.LibraryName)
}

// DescriptorSource returns the descriptor path inside a source folder.
func (l Layout) DescriptorSource(sourceDir string) string {
	return filepath.Join(sourceDir, l.IncludesFolder, l.DescriptorName)
}

// LibraryTarget returns where the library is staged under a web root.
func (l Layout) LibraryTarget(webRoot string) string {
	return filepath.Join(webRoot, BinFolder, l.LibraryName)
}

// DescriptorTarget returns where the descriptor is staged under a web root.
func (l Layout) DescriptorTarget(webRoot string) string {
	return filepath.Join(webRoot, l.ConnectorFolder, l.DescriptorName)
}

// EndpointPath returns the URL path of the staged descriptor, e.g. "_DEV/PackageInstaller.yaml".
func (l Layout) EndpointPath() string {
	return l.ConnectorFolder + "/" + l.DescriptorName
}

// NormalizeFolder appends a trailing separator to folder unless it has one.
// The separator follows the style already used in the path, so UNC and drive
// paths keep backslashes on every platform.
func NormalizeFolder(folder string) string {
	if folder == "" || strings.HasSuffix(folder, `\`) || strings.HasSuffix(folder, "/") {
		return folder
	}

	if strings.Contains(folder, `\`) && !strings.Contains(folder, "/") {
		return folder + `\`
	}

	return folder + string(filepath.Separator)
}

// NormalizeURL appends a trailing slash to a base URL unless it has one.
func NormalizeURL(baseURL string) string {
	if baseURL == "" || strings.HasSuffix(baseURL, "/") {
		return baseURL
	}

	return baseURL + "/"
}

// Address returns the connector endpoint address under a base URL,
// e.g. "http://host/_DEV/PackageInstaller.yaml".
func Address(baseURL string, layout Layout) string {
	return NormalizeURL(baseURL) + layout.EndpointPath()
}
