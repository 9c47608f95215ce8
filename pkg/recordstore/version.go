package recordstore

// Version is the release version of the module.
const Version = "0.1.0"

// Revision is the source revision the binary was built from, set with
// -ldflags at build time.
var Revision = ""
