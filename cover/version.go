package cover

// Version is the tool release, in semver form. Artifacts and cache
// entries from a different major version are not read back.
const Version = "v0.4.1"
