package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// sessionFlags are the flags shared by commands that open a session.
type sessionFlags struct {
	chunkSize int
	overlap   int
	topK      int
	session   string
	noCache   bool
}

// addSessionFlags registers the shared flags on cmd.
func addSessionFlags(cmd *cobra.Command, f *sessionFlags) {
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "maximum chunk length in characters (default from settings)")
	cmd.Flags().IntVar(&f.overlap, "overlap", 0, "characters shared by consecutive chunks (default from settings)")
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "number of chunks retrieved per question (default from settings)")
	cmd.Flags().StringVar(&f.session, "session", "", "resume the conversation with this session ID")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "embed every chunk, ignoring the embedding cache")
}

// openOptions resolves the flags against settings. Unset chunking flags are
// left to the session service, which fills them from settings.
func (f *sessionFlags) openOptions(cmd *cobra.Command, settings *domain.AppSettings) (driving.OpenOptions, error) {
	opts := driving.OpenOptions{SessionID: f.session}
	opts.Ingest.DisableCache = f.noCache

	sizeSet := cmd.Flags().Changed("chunk-size")
	overlapSet := cmd.Flags().Changed("overlap")
	if !sizeSet && !overlapSet {
		return opts, nil
	}

	chunking := settings.Chunking
	if sizeSet {
		chunking.Size = f.chunkSize
	}
	if overlapSet {
		chunking.Overlap = f.overlap
	} else {
		chunking.Overlap = inheritedOverlap(settings.Chunking, chunking.Size)
	}
	if err := chunking.Validate(); err != nil {
		return opts, fmt.Errorf("chunk size %d with overlap %d: %w: size must be positive and --overlap in [0, size)",
			chunking.Size, chunking.Overlap, err)
	}

	opts.Ingest.ChunkSize = chunking.Size
	opts.Ingest.Overlap = chunking.Overlap
	return opts, nil
}

// inheritedOverlap is the configured overlap for a chunk size given only on
// the command line. An overlap that no longer fits is scaled down in
// proportion to the configured size.
func inheritedOverlap(configured domain.ChunkingSettings, size int) int {
	if size <= 0 || configured.Overlap < size {
		return configured.Overlap
	}
	if configured.Size <= 0 {
		return 0
	}
	return min(configured.Overlap*size/configured.Size, size-1)
}

// k returns the top-k flag, or the configured k when the flag is unset.
// An explicit value is passed through so the engine can reject it.
func (f *sessionFlags) k(cmd *cobra.Command, settings *domain.AppSettings) int {
	if cmd.Flags().Changed("top-k") {
		return f.topK
	}
	if settings.Retrieval.K > 0 {
		return settings.Retrieval.K
	}
	return domain.DefaultTopK
}
