// Package dreams holds the dream record domain: loading records, building
// the synthesis corpus, picking seed images, and the classifier and
// analyst agents with their createTag tool.
//
// The corpus is plain text; the world pipeline never looks inside it.
package dreams
