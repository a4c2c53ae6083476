// FILE: lixenwraith/dotenv/discovery.go
package dotenv

import (
	"os"
	"path/filepath"
	"strings"
)

// DirDiscoveryOptions configures automatic env directory discovery
type DirDiscoveryOptions struct {
	// Application name, used for the XDG directory
	Name string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable to check for an explicit directory
	EnvVar string

	// CLI flag to check (e.g., "--env-dir")
	CLIFlag string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns sensible defaults
func DefaultDiscoveryOptions(appName string) DirDiscoveryOptions {
	return DirDiscoveryOptions{
		Name:          appName,
		EnvVar:        strings.ToUpper(appName) + "_ENV_DIR",
		CLIFlag:       "--env-dir",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// WithDirDiscovery sets the work directory to the first discovered env directory.
// An explicit CLI flag or environment variable wins over searching; a searched
// directory must hold at least one env file.
func (b *Builder) WithDirDiscovery(opts DirDiscoveryOptions) *Builder {
	if dir := DiscoverDir(opts, b.args); dir != "" {
		b.workDir = dir
	}
	return b
}

// DiscoverDir resolves the env directory for opts and args, empty if none found
func DiscoverDir(opts DirDiscoveryOptions, args []string) string {
	// Check CLI args first (highest priority)
	if opts.CLIFlag != "" {
		for i, arg := range args {
			if arg == opts.CLIFlag && i+1 < len(args) {
				return args[i+1]
			}
			if value, ok := strings.CutPrefix(arg, opts.CLIFlag+"="); ok {
				return value
			}
		}
	}

	// Check environment variable
	if opts.EnvVar != "" {
		if dir := os.Getenv(opts.EnvVar); dir != "" {
			return dir
		}
	}

	// Build search paths
	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)

	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}

	if opts.UseXDG && opts.Name != "" {
		searchPaths = append(searchPaths, getXDGConfigPaths(opts.Name)...)
	}

	lister := OSLister{}
	for _, dir := range searchPaths {
		if files, err := lister.List(dir, EnvFilePattern); err == nil && len(files) > 0 {
			return dir
		}
	}

	// No directory found is not an error - the store can run on inline values
	return ""
}

// getXDGConfigPaths returns XDG-compliant config search paths
func getXDGConfigPaths(appName string) []string {
	var paths []string

	// XDG_CONFIG_HOME
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	// XDG_CONFIG_DIRS
	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		// Default system paths
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
