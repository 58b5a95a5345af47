package common

import "os"

// DEFAULT_FILE_PERM on Windows is a fixed 0644 since Windows does not use a
// POSIX umask; ACLs, not mode bits, govern actual access there.
var DEFAULT_FILE_PERM os.FileMode = 0644
