// Package services holds shared error taxonomy for external collaborators and
// hosts the HTTP clients for the extraction oracle, the metadata oracle, and
// the caption source in its subpackages.
//
// Errors from any client are tagged with one of the sentinel markers so the
// workflow can classify failures without inspecting message strings.
package services
