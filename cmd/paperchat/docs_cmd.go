package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"paperchat/internal/api"
	"paperchat/internal/logging"
	"paperchat/internal/upload"
)

var docsDeleteYes bool

// docsCmd groups the headless document operations.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage documents on the backend",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	RunE:  runDocsList,
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload [file]...",
	Short: "Upload PDFs, one at a time in the order given",
	Long: `Uploads each file sequentially. A file the backend refuses does not
stop the rest of the batch; the summary and exit code report failures.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocsUpload,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [pdf-id]",
	Short: "Delete one document by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

var docsWatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch an inbox directory and upload PDFs as they arrive",
	Long: `Watches a directory and uploads each PDF once it has settled (no
writes for a quiet window, so half-copied files are never sent).
PDFs already in the directory are uploaded first. Ctrl+C stops.

Without an argument the configured upload.inbox_dir is watched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDocsWatch,
}

func init() {
	docsDeleteCmd.Flags().BoolVarP(&docsDeleteYes, "yes", "y", false, "Skip the confirmation prompt")

	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsUploadCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	docsCmd.AddCommand(docsWatchCmd)
}

func runDocsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetAPITimeout())
	defer cancel()

	docs, err := backendClient().ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}

	const nameW = 40
	fmt.Printf("%s %7s %6s  %s\n", runewidth.FillRight("NAME", nameW), "CHUNKS", "PAGES", "ID")
	for _, d := range docs {
		name := runewidth.Truncate(d.PDFName, nameW, "…")
		fmt.Printf("%s %7d %6d  %s\n", runewidth.FillRight(name, nameW), d.ChunkCount, d.PageCount(), d.PDFID)
	}
	return nil
}

func runDocsUpload(cmd *cobra.Command, args []string) error {
	batch, err := upload.NewBatch(args, upload.WithMaxFileSize(int64(cfg.Upload.MaxFileMB)*1<<20))
	if errors.Is(err, upload.ErrNoValidFiles) {
		return fmt.Errorf("%w (only PDFs are accepted)", err)
	}
	if err != nil {
		return err
	}
	for _, f := range batch.Failures() {
		fmt.Printf("✗ %s\n", f.Message())
	}

	client := backendClient()
	for {
		path, ok := batch.Current()
		if !ok {
			break
		}
		if err := uploadOne(client, path); err != nil {
			batch.Fail(err)
			fmt.Printf("✗ Failed to upload %s: %v\n", filepath.Base(path), err)
		} else {
			batch.Succeed()
			fmt.Printf("✓ %s\n", filepath.Base(path))
		}
	}

	fmt.Println(batch.Summary())
	if n := len(batch.Failures()); n > 0 {
		return fmt.Errorf("%d file(s) failed", n)
	}
	return nil
}

func uploadOne(client *api.Client, path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetAPITimeout())
	defer cancel()
	return client.UploadDocument(ctx, path)
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	id := args[0]

	if !docsDeleteYes {
		fmt.Printf("Delete document %s? [y/N]: ", id)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetAPITimeout())
	defer cancel()
	if err := backendClient().DeleteDocument(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

func runDocsWatch(cmd *cobra.Command, args []string) error {
	dir := cfg.Upload.InboxDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no inbox directory: pass one or set upload.inbox_dir")
	}

	watcher, err := upload.NewInboxWatcher(dir, upload.DefaultSettle)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}

	// The catch-up scan blocks when it outpaces the upload loop, so it
	// runs alongside the loop rather than before it.
	go func() {
		if err := watcher.ScanExisting(); err != nil {
			logging.Watch("catch-up scan failed: %v", err)
		}
	}()

	fmt.Printf("Watching %s for PDFs. Press Ctrl+C to stop.\n", dir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nStopping watcher...")
		watcher.Stop()
	}()

	client := backendClient()
	for path := range watcher.Files() {
		if err := uploadOne(client, path); err != nil {
			fmt.Printf("✗ Failed to upload %s: %v\n", filepath.Base(path), err)
		} else {
			fmt.Printf("✓ %s\n", filepath.Base(path))
		}
	}
	return nil
}
