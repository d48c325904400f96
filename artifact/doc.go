// Package artifact persists generated media in a public asset directory and
// describes one generation run with a Manifest.
//
// Stores return root-relative public paths ("/generated/background.png")
// which are what callers hand to clients. Latest resolves the most recent
// file whose base name matches a pattern; it is the fallback source when a
// generation step fails.
package artifact
