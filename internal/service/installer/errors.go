package installer

import "errors"

// errPackagePathRequired is returned when no package path is provided.
var errPackagePathRequired = errors.New("package path is required")
