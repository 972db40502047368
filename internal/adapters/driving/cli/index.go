package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

var (
	indexFlags  sessionFlags
	indexVerify bool
)

var indexCmd = &cobra.Command{
	Use:   "index <document>",
	Short: "Index a document without asking anything",
	Long: `Extracts, chunks and embeds the document and reports what was done.

Embeddings are cached, so indexing a document ahead of time makes later
questions about it start faster.

With --verify the chunks are checked to reproduce the extracted text exactly.`,
	Args: exactArgs(1),
	RunE: runIndex,
}

func init() {
	addSessionFlags(indexCmd, &indexFlags)
	indexCmd.Flags().BoolVar(&indexVerify, "verify", false, "check that the chunks reproduce the document text")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	settings, err := currentSettings()
	if err != nil {
		return err
	}
	opts, err := indexFlags.openOptions(cmd, settings)
	if err != nil {
		return err
	}

	c, err := core()
	if err != nil {
		return err
	}
	if c.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	indexed, err := c.Ingest.Ingest(cmd.Context(), args[0], opts.Ingest)
	if err != nil {
		return err
	}

	stats := indexed.Stats
	cmd.Printf("Indexed %s\n", indexed.Document.URI)
	cmd.Printf("  Chunks:     %d\n", stats.ChunkCount)
	cmd.Printf("  Cached:     %d\n", stats.CacheHits)
	cmd.Printf("  Embedded:   %d\n", stats.Embedded)
	cmd.Printf("  Index:      %s (%d dimensions)\n", indexed.Index.Strategy(), indexed.Index.Dimensions())
	cmd.Printf("  Duration:   %s\n", stats.Duration.Round(time.Millisecond))

	if !indexVerify {
		return nil
	}
	text, err := chunker.Reconstruct(indexed.Chunks)
	if err != nil {
		return fmt.Errorf("verify chunks: %w", err)
	}
	if text != indexed.Document.Content {
		return fmt.Errorf("verify chunks: chunks reproduce %d characters, document has %d",
			len(text), len(indexed.Document.Content))
	}
	cmd.Println("  Verified:   chunks reproduce the document")
	return nil
}
