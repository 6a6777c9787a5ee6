package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/media/processor"
	"github.com/leeforge/giftstudio/media/queue"
	"github.com/leeforge/giftstudio/media/storage"
)

type normalizeFlags struct {
	outDir    string
	format    string
	upload    bool
	workers   int
	retries   int
	thumbnail bool
}

func newNormalizeCmd() *cobra.Command {
	var f normalizeFlags
	cmd := &cobra.Command{
		Use:   "normalize <in> <out> | normalize --out-dir <dir> <in>... | normalize --upload <in>...",
		Short: "Validate, downscale and re-encode images",
		Long: `normalize runs images through the same checks the service applies
(size limit, supported format, maximum dimension) and re-encodes them.

With two arguments the first is read and the second written, in the format
of its extension. With --out-dir every argument is an input and outputs are
written to the directory. With --upload outputs go to the configured storage.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if f.outDir != "" || f.upload {
				return cobra.MinimumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, f, args)
		},
	}
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "write outputs into this directory")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: png, jpeg or webp")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "upload outputs to the configured storage")
	cmd.Flags().IntVar(&f.workers, "workers", 4, "images processed at once")
	cmd.Flags().IntVar(&f.retries, "retries", 2, "retries for writing or uploading an output")
	cmd.Flags().BoolVar(&f.thumbnail, "thumbnail", false, "write catalog list thumbnails (245x156 JPEG)")
	cmd.MarkFlagsMutuallyExclusive("out-dir", "upload")
	cmd.MarkFlagsMutuallyExclusive("thumbnail", "format")
	return cmd
}

func runNormalize(cmd *cobra.Command, f normalizeFlags, args []string) error {
	sc, _, err := loadConfig(false)
	if err != nil {
		return err
	}
	opts := sc.Output
	if f.thumbnail {
		opts.Format = processor.AdminThumbnail.Format
	}

	var jobs []queue.Job
	single := f.outDir == "" && !f.upload
	if single && !f.thumbnail {
		if ext := filepath.Ext(args[1]); ext != "" && f.format == "" {
			if format, ok := processor.NormalizeFormat(ext); ok {
				opts.Format = format
			}
		}
	}
	if single {
		jobs = []queue.Job{{Input: args[0], Output: args[1]}}
	}
	if f.format != "" {
		format, ok := processor.NormalizeFormat(f.format)
		if !ok {
			return apperrors.NewInvalid("format", f.format, "must be png, jpeg or webp")
		}
		opts.Format = format
	}
	if !single {
		for _, in := range args {
			name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			jobs = append(jobs, queue.Job{
				Input:  in,
				Output: filepath.Join(f.outDir, name+"."+extension(opts.Format)),
			})
		}
	}

	bo := queue.Options{Workers: f.workers, Retries: f.retries}
	if f.upload {
		if bo.Storage, err = storage.NewFromConfig(sc.Storage); err != nil {
			return err
		}
		bo.Prefix = sc.Storage.Prefix
	}

	pipeline := processor.NewProcessingPipeline(opts)
	if f.thumbnail {
		pipeline = processor.NewThumbnailPipeline(opts.MaxBytes, opts.MaxPixels, processor.AdminThumbnail)
	}

	out := cmd.OutOrStdout()
	results, err := queue.NewBatchProcessor(pipeline, opts.Format, bo).Run(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			if single {
				return res.Err
			}
			fmt.Fprintf(out, "%s: %v\n", res.Input, res.Err)
			continue
		}
		dest := res.Output
		if res.URL != "" {
			dest = res.URL
		}
		fmt.Fprintf(out, "%s: %d -> %d bytes (%s)\n", dest, res.InBytes, res.OutBytes, strings.ToUpper(opts.Format))
	}
	if failed > 0 {
		return apperrors.NewValidation(fmt.Sprintf("%d of %d images failed", failed, len(results)))
	}
	return nil
}

func extension(format string) string {
	if format == processor.FormatJPEG {
		return "jpg"
	}
	return format
}
