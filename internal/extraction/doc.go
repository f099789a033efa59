// Package extraction orchestrates the external extraction oracle over an
// episode's chunks.
//
// The oracle is treated as unreliable: responses are validated and defaulted
// at the boundary, a malformed response earns one strict retry, and a chunk
// that still fails contributes nothing instead of aborting the run. Only
// total failure of every chunk fails the episode. Chunks are submitted in
// transcript order so the boundary coverage report stays meaningful.
package extraction
